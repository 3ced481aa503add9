package db

import "github.com/duckdb/duckdb-go/v2"

// TypeInfo returns the type info of a primitive DuckDB type and panics
// for types that need parameters.
func TypeInfo(t duckdb.Type) duckdb.TypeInfo {
	ti, err := duckdb.NewTypeInfo(t)
	if err != nil {
		panic(err)
	}
	return ti
}

func ColumnInfo(name string, t duckdb.Type) duckdb.ColumnInfo {
	return duckdb.ColumnInfo{Name: name, T: TypeInfo(t)}
}
