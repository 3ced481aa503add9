package functions

import (
	"context"
	"database/sql/driver"
	"fmt"
	"math"
	"time"

	"github.com/duckdb/duckdb-go/v2"
	"go.uber.org/zap"

	"github.com/hugr-lab/duckdb-http/pkg/db"
)

// maxMilliseconds is the largest value that still fits a time.Duration.
const maxMilliseconds = math.MaxInt64 / int64(time.Millisecond)

func convertMs(args []driver.Value) (int64, error) {
	ms, err := requiredInt(args, 0, "milliseconds")
	if err != nil {
		return 0, err
	}
	if ms < 0 || ms > maxMilliseconds {
		return 0, fmt.Errorf("milliseconds must be between 0 and %d, got %d", maxMilliseconds, ms)
	}
	return ms, nil
}

func (s *Service) registerSettings(ctx context.Context) error {
	// http_timeout_set(ms) applies to requests created after the call
	err := db.RegisterScalarFunction(ctx, s.db, &db.ScalarFunctionWithArgs[int64, int64]{
		Name: "http_timeout_set",
		Execute: func(ctx context.Context, ms int64) (int64, error) {
			s.client.SetTimeout(time.Duration(ms) * time.Millisecond)
			s.logger.Info("http timeout changed", zap.Int64("ms", ms))
			return ms, nil
		},
		ConvertInput: convertMs,
		InputTypes:   []duckdb.TypeInfo{db.TypeInfo(duckdb.TYPE_BIGINT)},
		OutputType:   db.TypeInfo(duckdb.TYPE_BIGINT),
		IsVolatile:   true,
	})
	if err != nil {
		return fmt.Errorf("http_timeout_set: %w", err)
	}

	// http_rate_limit(ms) sets the minimum delay between requests, 0 disables it
	err = db.RegisterScalarFunction(ctx, s.db, &db.ScalarFunctionWithArgs[int64, int64]{
		Name: "http_rate_limit",
		Execute: func(ctx context.Context, ms int64) (int64, error) {
			s.client.SetRateLimit(time.Duration(ms) * time.Millisecond)
			s.logger.Info("http rate limit changed", zap.Int64("ms", ms))
			return ms, nil
		},
		ConvertInput: convertMs,
		InputTypes:   []duckdb.TypeInfo{db.TypeInfo(duckdb.TYPE_BIGINT)},
		OutputType:   db.TypeInfo(duckdb.TYPE_BIGINT),
		IsVolatile:   true,
	})
	if err != nil {
		return fmt.Errorf("http_rate_limit: %w", err)
	}
	return nil
}
