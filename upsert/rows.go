package upsert

import "fmt"

// batchRows materializes the batch as ordered value rows. Records sharing a
// primary key value are collapsed so the merge statement never updates the
// same target row twice: the last record wins, holding the position of the
// first occurrence.
func batchRows(primaryKey string, columns []string, batch []Record) [][]any {
	keyIndex := 0
	for i, col := range columns {
		if col == primaryKey {
			keyIndex = i
			break
		}
	}

	rows := make([][]any, 0, len(batch))
	seen := make(map[string]int, len(batch))
	for _, record := range batch {
		row := make([]any, len(columns))
		for i, col := range columns {
			// Absent keys stay nil and load as NULL.
			row[i] = record[col]
		}
		key := fmt.Sprintf("%v", row[keyIndex])
		if prev, ok := seen[key]; ok {
			rows[prev] = row
			continue
		}
		seen[key] = len(rows)
		rows = append(rows, row)
	}
	return rows
}
