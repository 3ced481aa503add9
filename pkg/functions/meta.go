package functions

import (
	"context"

	"github.com/duckdb/duckdb-go/v2"

	"github.com/hugr-lab/duckdb-http/pkg/db"
	"github.com/hugr-lab/duckdb-http/pkg/meta"
)

func (s *Service) registerMeta(ctx context.Context) error {
	err := db.RegisterScalarFunction(ctx, s.db, &db.ScalarFunctionNoArgs[string]{
		Name: "http_version",
		Execute: func(ctx context.Context) (string, error) {
			return meta.VersionString(), nil
		},
		OutputType: db.TypeInfo(duckdb.TYPE_VARCHAR),
	})
	if err != nil {
		return err
	}

	return db.RegisterScalarFunction(ctx, s.db, &db.ScalarFunctionNoArgs[string]{
		Name: "http_debug",
		Execute: func(ctx context.Context) (string, error) {
			return meta.DebugString(), nil
		},
		OutputType: db.TypeInfo(duckdb.TYPE_VARCHAR),
	})
}
