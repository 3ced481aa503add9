package db

import (
	"bytes"
	"context"
	"testing"
)

func TestQueryRows(t *testing.T) {
	db, err := NewPool("")
	if err != nil {
		t.Fatalf("Failed to create pool: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	query := `
		SELECT *
		FROM (
			VALUES (1, 'test', 'a'::BLOB), (2, 'test2', 'bc'::BLOB)
		) AS t(col1, col2, col3)
		ORDER BY col1
	`

	rows, err := db.QueryRows(ctx, query)
	if err != nil {
		t.Fatalf("QueryRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %v, want %v", len(rows), 2)
	}
	if got, want := rows[1]["col2"], "test2"; got != want {
		t.Errorf("rows[1][\"col2\"] = %v, want %v", got, want)
	}
	b, ok := rows[1]["col3"].([]byte)
	if !ok || !bytes.Equal(b, []byte("bc")) {
		t.Errorf("rows[1][\"col3\"] = %v, want %v", rows[1]["col3"], []byte("bc"))
	}
}

func TestQueryRows_Empty(t *testing.T) {
	db, err := NewPool("")
	if err != nil {
		t.Fatalf("Failed to create pool: %v", err)
	}
	defer db.Close()

	rows, err := db.QueryRows(context.Background(), "SELECT 1 AS col1 WHERE false")
	if err != nil {
		t.Fatalf("QueryRows() error = %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("QueryRows() = %v, want empty slice", rows)
	}
}

func TestQueryTableToSlice(t *testing.T) {
	db, err := NewPool("")
	if err != nil {
		t.Fatalf("Failed to create pool: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	query := `
		SELECT *
		FROM (
			VALUES (1, 'test'), (2, 'test2')
		) AS t(col1, col2)
		ORDER BY col1
	`

	var data []map[string]interface{}
	err = db.QueryTableToSlice(ctx, &data, query)
	if err != nil {
		t.Fatalf("QueryTableToSlice() error = %v", err)
	}
	if len(data) != 2 {
		t.Errorf("len(data) = %v, want %v", len(data), 2)
	}
	if got, want := data[0]["col1"], 1.; got != want {
		t.Errorf("data[0][\"col1\"] = %v, want %v", got, want)
	}
	if got, want := data[0]["col2"], "test"; got != want {
		t.Errorf("data[0][\"col2\"] = %v, want %v", got, want)
	}
}

func TestQueryScalarValue(t *testing.T) {
	db, err := NewPool("")
	if err != nil {
		t.Fatalf("Failed to create pool: %v", err)
	}
	defer db.Close()

	val, err := db.QueryScalarValue(context.Background(), "SELECT 'test'")
	if err != nil {
		t.Fatalf("QueryScalarValue() error = %v", err)
	}
	if got, want := val, "test"; got != want {
		t.Errorf("QueryScalarValue() = %v, want %v", got, want)
	}
}
