package duckhttp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hugr-lab/duckdb-http/pkg/db"
	"github.com/hugr-lab/duckdb-http/pkg/fetch"
	"github.com/hugr-lab/duckdb-http/pkg/functions"
	"github.com/hugr-lab/duckdb-http/pkg/handles"
)

const (
	defaultHandlesCapacity = 1024
	defaultHandlesTTL      = time.Hour
)

type Config struct {
	DB      db.Config
	Fetch   fetch.Config
	Handles handles.Config

	// NoNetwork registers only the functions that never reach the network.
	NoNetwork bool
	Debug     bool

	Logger *zap.Logger
	// Metrics enables fetch metrics and the /metrics endpoint.
	Metrics *prometheus.Registry
}

// Service is a DuckDB database with the http_* functions registered and an
// HTTP API in front of it.
type Service struct {
	config Config

	router    *http.ServeMux
	db        *db.Pool
	client    *fetch.Client
	handles   *handles.Registry
	functions *functions.Service
	logger    *zap.Logger
}

func New(config Config) *Service {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Handles.Capacity == 0 {
		config.Handles.Capacity = defaultHandlesCapacity
	}
	if config.Handles.TTL == 0 {
		config.Handles.TTL = defaultHandlesTTL
	}
	if config.Fetch.Logger == nil {
		config.Fetch.Logger = config.Logger.Named("fetch")
	}
	if config.Metrics != nil && config.Fetch.Metrics == nil {
		config.Fetch.Metrics = fetch.NewMetrics(config.Metrics)
	}
	return &Service{
		config:  config,
		router:  http.NewServeMux(),
		client:  fetch.New(config.Fetch),
		handles: handles.New(config.Handles),
		logger:  config.Logger,
	}
}

func (s *Service) Init(ctx context.Context) (err error) {
	s.db, err = db.Connect(ctx, s.config.DB)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	s.functions = functions.New(s.db, s.client, s.handles, s.logger.Named("functions"))
	err = s.functions.RegisterUDF(ctx, s.config.NoNetwork)
	if err != nil {
		return fmt.Errorf("register udf: %w", err)
	}

	s.endpoints()
	s.logger.Info("duckdb http service initialized",
		zap.String("db_path", s.config.DB.Path),
		zap.Bool("no_network", s.config.NoNetwork),
	)
	return nil
}

func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}

	return nil
}

func (s *Service) DB() *db.Pool {
	return s.db
}

func (s *Service) Handles() *handles.Registry {
	return s.handles
}

func (s *Service) Client() *fetch.Client {
	return s.client
}

func (s *Service) endpoints() {
	mw := s.middlewares()

	s.router.Handle("/query", mw(http.HandlerFunc(s.queryHandler)))
	s.router.Handle("GET /handles/{handle}", mw(http.HandlerFunc(s.streamHandler)))

	if s.config.Metrics != nil {
		s.router.Handle("GET /metrics", promhttp.HandlerFor(s.config.Metrics, promhttp.HandlerOpts{}))
	}
}

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
