package upsertpgx

import (
	"context"
	"testing"

	"github.com/cantart/staging-upsert/upsert"
)

func TestUpsertValidatesBeforeTouchingPool(t *testing.T) {
	table := upsert.Table{Name: "bo oks", PrimaryKey: "id", Fields: []upsert.Field{{Name: "id"}}}
	// The nil pool proves validation happens before any connection work.
	err := New(nil).Upsert(context.Background(), table, []upsert.Record{{"id": int64(1)}})
	if err == nil {
		t.Fatal("Upsert expected metadata error, got nil")
	}
}

func TestUpsertEmptyBatchIsNoOp(t *testing.T) {
	table := upsert.Table{Name: "books", PrimaryKey: "id", Fields: []upsert.Field{{Name: "id"}, {Name: "title"}}}
	if err := New(nil).Upsert(context.Background(), table, nil); err != nil {
		t.Fatalf("Upsert(empty) = %v, want nil", err)
	}
}
