package db

import (
	"bytes"
	"context"
	"encoding/json"
)

// QueryRows runs the query and returns every row as a column name to value map.
// Values keep the types the driver scans them into, BLOB values are []byte.
func (db *Pool) QueryRows(ctx context.Context, q string, params ...any) ([]map[string]any, error) {
	rows, err := db.Query(ctx, q, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	data := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		data = append(data, row)
	}
	return data, rows.Err()
}

// QueryTableToSlice decodes the query rows into data through their JSON form.
func (db *Pool) QueryTableToSlice(ctx context.Context, data any, q string, params ...any) error {
	rows, err := db.QueryRows(ctx, q, params...)
	if err != nil {
		return err
	}
	buf := bytes.NewBuffer(nil)
	err = json.NewEncoder(buf).Encode(rows)
	if err != nil {
		return err
	}
	return json.NewDecoder(buf).Decode(data)
}

func (db *Pool) QueryScalarValue(ctx context.Context, q string, params ...any) (any, error) {
	var val any
	err := db.QueryRow(ctx, q, params...).Scan(&val)
	if err != nil {
		return nil, err
	}

	return val, nil
}
