package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"

	_ "github.com/lib/pq"

	"github.com/cantart/staging-upsert/monitoring"
	"github.com/cantart/staging-upsert/upsert"
)

func main() {
	dsn := fmt.Sprintf("host=%s port=%d user=%s dbname=%s password=%s sslmode=disable",
		"localhost", 5432, "postgres", "stagingupsert", "postgres")
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Printf("open postgres: %v", err)
		return
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		panic(err)
	}

	createStmt := `CREATE TABLE IF NOT EXISTS books (id BIGINT PRIMARY KEY, title TEXT, author_id BIGINT)`
	if _, err := db.ExecContext(ctx, createStmt); err != nil {
		log.Printf("create demo table: %v", err)
		return
	}

	table := upsert.Table{
		Name:       "books",
		PrimaryKey: "id",
		Fields: []upsert.Field{
			{Name: "id"},
			{Name: "title"},
			{Name: "author", Reference: true},
		},
	}
	reporter := monitoring.NewPrometheusReporter()
	upserter := upsert.NewStagingUpserter(db).WithMetricsReporter(reporter)

	first := []upsert.Record{
		{"id": 1, "title": "The Go Programming Language", "author_id": 10},
		{"id": 2, "title": "Learning SQL", "author_id": 20},
	}
	if err := upserter.Upsert(ctx, table, first); err != nil {
		log.Printf("first upsert: %v", err)
		return
	}
	log.Printf("upserted %d books", len(first))

	// The second batch overwrites book 1 and inserts book 3.
	second := []upsert.Record{
		{"id": 1, "title": "The Go Programming Language, 2nd printing", "author_id": 10},
		{"id": 3, "title": "Database Internals", "author_id": nil},
	}
	if err := upserter.Upsert(ctx, table, second); err != nil {
		log.Printf("second upsert: %v", err)
		return
	}
	log.Printf("upserted %d books", len(second))

	rows, err := db.QueryContext(ctx, "SELECT id, title, author_id FROM books ORDER BY id")
	if err != nil {
		log.Printf("query books: %v", err)
		return
	}
	defer rows.Close()

	log.Println("books after both batches:")
	for rows.Next() {
		var id int64
		var title string
		var authorID sql.NullInt64
		if err := rows.Scan(&id, &title, &authorID); err != nil {
			log.Printf("scan book row: %v", err)
			break
		}
		if authorID.Valid {
			log.Printf("- %d: %s (author %d)", id, title, authorID.Int64)
		} else {
			log.Printf("- %d: %s (no author)", id, title)
		}
	}
	if err := rows.Err(); err != nil {
		log.Printf("iterating book rows: %v", err)
	}

	log.Println("serving upsert metrics on http://localhost:9090/metrics")
	http.Handle("/metrics", reporter.Handler())
	log.Fatal(http.ListenAndServe(":9090", nil))
}
