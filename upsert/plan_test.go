package upsert

import "testing"

func demoTable() Table {
	return Table{
		Name:       "books",
		PrimaryKey: "id",
		Fields: []Field{
			{Name: "id"},
			{Name: "title"},
			{Name: "author", Reference: true},
		},
	}
}

func TestNewPlanStatements(t *testing.T) {
	pinStagingToken(t, "deadbeef")

	plan, err := NewPlan(demoTable(), []Record{{"id": 1, "title": "a", "author_id": 10}})
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}

	if plan.Staging != "staging_books_deadbeef" {
		t.Fatalf("Staging = %q", plan.Staging)
	}
	if want := `DROP TABLE IF EXISTS "staging_books_deadbeef"`; plan.DropSQL != want {
		t.Fatalf("DropSQL = %q, want %q", plan.DropSQL, want)
	}
	if want := `CREATE TEMPORARY TABLE "staging_books_deadbeef" AS SELECT * FROM "books" LIMIT 0`; plan.CreateSQL != want {
		t.Fatalf("CreateSQL = %q, want %q", plan.CreateSQL, want)
	}
	if want := `COPY "staging_books_deadbeef" ("id", "title", "author_id") FROM STDIN WITH (FORMAT text, NULL '\N')`; plan.CopySQL != want {
		t.Fatalf("CopySQL = %q, want %q", plan.CopySQL, want)
	}
	want := `INSERT INTO "books" ("id", "title", "author_id") ` +
		`SELECT "id", "title", "author_id" FROM "staging_books_deadbeef" ` +
		`ON CONFLICT ("id") DO UPDATE SET "title" = EXCLUDED."title", "author_id" = EXCLUDED."author_id"`
	if plan.MergeSQL != want {
		t.Fatalf("MergeSQL = %q, want %q", plan.MergeSQL, want)
	}
}

func TestNewPlanKeyOnlyTable(t *testing.T) {
	pinStagingToken(t, "deadbeef")

	table := Table{Name: "tags", PrimaryKey: "name", Fields: []Field{{Name: "name"}}}
	plan, err := NewPlan(table, []Record{{"name": "go"}})
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}

	want := `INSERT INTO "tags" ("name") SELECT "name" FROM "staging_tags_deadbeef" ON CONFLICT ("name") DO NOTHING`
	if plan.MergeSQL != want {
		t.Fatalf("MergeSQL = %q, want %q", plan.MergeSQL, want)
	}
}

func TestNewPlanInvalidTable(t *testing.T) {
	if _, err := NewPlan(Table{Name: "bo oks"}, nil); err == nil {
		t.Fatal("NewPlan expected error for invalid metadata, got nil")
	}
}

func TestNewPlanDeduplicatesBatch(t *testing.T) {
	plan, err := NewPlan(demoTable(), []Record{
		{"id": 1, "title": "first", "author_id": 10},
		{"id": 1, "title": "second", "author_id": 11},
	})
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	if len(plan.Rows) != 1 {
		t.Fatalf("Rows = %v, want one deduplicated row", plan.Rows)
	}
	if plan.Rows[0][1] != "second" {
		t.Fatalf("Rows[0] = %v, want the last record to win", plan.Rows[0])
	}
}
