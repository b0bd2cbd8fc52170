package upsert

import (
	"errors"
	"fmt"
)

// Field describes one field of the target table's row shape.
type Field struct {
	Name string
	// Reference marks a field that points at another table; its physical
	// column is the foreign key <Name>_id.
	Reference bool
}

func (f Field) column() string {
	if f.Reference {
		return f.Name + "_id"
	}
	return f.Name
}

// Table is the target-table metadata an upsert call operates on. The
// primary key must be one of the derived columns; it is the conflict
// target of the merge.
type Table struct {
	Name       string
	PrimaryKey string
	Fields     []Field
}

// Columns derives the ordered physical column list from the field set.
func (t Table) Columns() []string {
	columns := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		columns[i] = f.column()
	}
	return columns
}

// Validate checks the metadata before any SQL is generated from it.
func (t Table) Validate() error {
	if !isSafeIdentifier(t.Name) {
		return fmt.Errorf("invalid table name %q", t.Name)
	}
	if len(t.Fields) == 0 {
		return errors.New("at least one field is required")
	}
	if t.PrimaryKey == "" {
		return errors.New("primary key column is required")
	}
	seen := make(map[string]struct{}, len(t.Fields))
	hasKey := false
	for i, f := range t.Fields {
		col := f.column()
		if !isSafeIdentifier(col) {
			return fmt.Errorf("field[%d]: invalid column %q", i, col)
		}
		if _, dup := seen[col]; dup {
			return fmt.Errorf("duplicate column %q", col)
		}
		seen[col] = struct{}{}
		if col == t.PrimaryKey {
			hasKey = true
		}
	}
	if !hasKey {
		return fmt.Errorf("primary key %q not found in columns", t.PrimaryKey)
	}
	return nil
}
