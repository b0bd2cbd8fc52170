package upsert

import (
	"reflect"
	"testing"
)

func TestBatchRows(t *testing.T) {
	columns := []string{"id", "title", "author_id"}

	t.Run("preserves order and column positions", func(t *testing.T) {
		batch := []Record{
			{"id": 1, "title": "a", "author_id": 10},
			{"id": 2, "title": "b", "author_id": 20},
		}
		want := [][]any{
			{1, "a", 10},
			{2, "b", 20},
		}
		if got := batchRows("id", columns, batch); !reflect.DeepEqual(got, want) {
			t.Fatalf("batchRows = %v, want %v", got, want)
		}
	})

	t.Run("missing key loads as nil", func(t *testing.T) {
		batch := []Record{{"id": 1, "title": "a"}}
		want := [][]any{{1, "a", nil}}
		if got := batchRows("id", columns, batch); !reflect.DeepEqual(got, want) {
			t.Fatalf("batchRows = %v, want %v", got, want)
		}
	})

	t.Run("duplicate primary key keeps the last record", func(t *testing.T) {
		batch := []Record{
			{"id": 1, "title": "first", "author_id": 10},
			{"id": 2, "title": "other", "author_id": 20},
			{"id": 1, "title": "second", "author_id": 11},
		}
		want := [][]any{
			{1, "second", 11},
			{2, "other", 20},
		}
		if got := batchRows("id", columns, batch); !reflect.DeepEqual(got, want) {
			t.Fatalf("batchRows = %v, want %v", got, want)
		}
	})

	t.Run("empty batch", func(t *testing.T) {
		if got := batchRows("id", columns, nil); len(got) != 0 {
			t.Fatalf("batchRows(nil) = %v, want empty", got)
		}
	})
}
