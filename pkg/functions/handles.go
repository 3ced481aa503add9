package functions

import (
	"context"
	"database/sql/driver"
	"fmt"

	"github.com/duckdb/duckdb-go/v2"

	"github.com/hugr-lab/duckdb-http/pkg/db"
	"github.com/hugr-lab/duckdb-http/pkg/handles"
)

func (s *Service) registerHandles(ctx context.Context) error {
	// http_release(handle) BOOLEAN, false when the handle was not held
	err := db.RegisterScalarFunction(ctx, s.db, &db.ScalarFunctionWithArgs[handles.Handle, bool]{
		Name: "http_release",
		Execute: func(ctx context.Context, h handles.Handle) (bool, error) {
			return s.handles.Release(h), nil
		},
		ConvertInput: func(args []driver.Value) (handles.Handle, error) {
			h, err := requiredText(args, 0, "handle")
			return handles.Handle(h), err
		},
		InputTypes: []duckdb.TypeInfo{db.TypeInfo(duckdb.TYPE_VARCHAR)},
		OutputType: db.TypeInfo(duckdb.TYPE_BOOLEAN),
		IsVolatile: true,
	})
	if err != nil {
		return fmt.Errorf("http_release: %w", err)
	}

	// SELECT handle, tag, created_at FROM http_handles()
	err = db.RegisterTableRowFunction(ctx, s.db, &db.TableRowFunctionNoArgs[handles.Entry]{
		Name: "http_handles",
		Execute: func(ctx context.Context) ([]handles.Entry, error) {
			return s.handles.Entries(), nil
		},
		ColumnInfos: []duckdb.ColumnInfo{
			db.ColumnInfo("handle", duckdb.TYPE_VARCHAR),
			db.ColumnInfo("tag", duckdb.TYPE_VARCHAR),
			db.ColumnInfo("created_at", duckdb.TYPE_TIMESTAMP),
		},
		FillRow: func(e handles.Entry, row duckdb.Row) error {
			if err := row.SetRowValue(0, string(e.Handle)); err != nil {
				return err
			}
			if err := row.SetRowValue(1, e.Tag); err != nil {
				return err
			}
			return row.SetRowValue(2, e.CreatedAt.UTC())
		},
	})
	if err != nil {
		return fmt.Errorf("http_handles: %w", err)
	}
	return nil
}
