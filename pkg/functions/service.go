package functions

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hugr-lab/duckdb-http/pkg/db"
	"github.com/hugr-lab/duckdb-http/pkg/fetch"
	"github.com/hugr-lab/duckdb-http/pkg/handles"
)

var ErrMissingArgument = errors.New("missing required argument")

// Service registers the http_* SQL functions on a DuckDB pool.
type Service struct {
	db      *db.Pool
	client  *fetch.Client
	handles *handles.Registry
	logger  *zap.Logger
}

func New(pool *db.Pool, client *fetch.Client, registry *handles.Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:      pool,
		client:  client,
		handles: registry,
		logger:  logger,
	}
}

// RegisterUDF registers every function. With noNetwork set only the functions
// that never touch the network are registered.
func (s *Service) RegisterUDF(ctx context.Context, noNetwork bool) error {
	registrations := []struct {
		name     string
		register func(context.Context) error
		network  bool
	}{
		{"meta", s.registerMeta, false},
		{"fetch", s.registerFetch, true},
		{"exchange", s.registerExchange, true},
		{"read", s.registerRead, true},
		{"handles", s.registerHandles, true},
		{"settings", s.registerSettings, true},
	}
	for _, r := range registrations {
		if r.network && noNetwork {
			continue
		}
		if err := r.register(ctx); err != nil {
			return fmt.Errorf("register %s functions: %w", r.name, err)
		}
	}
	s.logger.Debug("http functions registered", zap.Bool("no_network", noNetwork))
	return nil
}

// requiredText reads a VARCHAR argument that must not be NULL.
func requiredText(args []driver.Value, i int, name string) (string, error) {
	if i >= len(args) || args[i] == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, name)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("%s: expected text, got %T", name, args[i])
	}
	return s, nil
}

// optionalText reads a VARCHAR argument that may be absent or NULL.
func optionalText(args []driver.Value, i int) string {
	if i >= len(args) || args[i] == nil {
		return ""
	}
	s, _ := args[i].(string)
	return s
}

func requiredInt(args []driver.Value, i int, name string) (int64, error) {
	if i >= len(args) || args[i] == nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingArgument, name)
	}
	switch v := args[i].(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("%s: expected integer, got %T", name, args[i])
	}
}
