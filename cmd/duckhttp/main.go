package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	duckhttp "github.com/hugr-lab/duckdb-http"
	"github.com/hugr-lab/duckdb-http/pkg/logging"
	"github.com/hugr-lab/duckdb-http/pkg/meta"
)

var (
	queryFlag   = flag.String("query", "", "run one SQL statement, print the rows as JSON and exit")
	versionFlag = flag.Bool("version", false, "print version information and exit")
)

func main() {
	flag.Parse()
	if *versionFlag {
		fmt.Print(meta.BuildString())
		return
	}
	conf := loadConfig()

	logger, err := logging.New(conf.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger configuration error:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var reg *prometheus.Registry
	if conf.Metrics {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	service := duckhttp.New(duckhttp.Config{
		DB:        conf.DB,
		Fetch:     conf.Fetch,
		Handles:   conf.Handles,
		NoNetwork: conf.NoNetwork,
		Debug:     conf.DebugMode,
		Logger:    logger,
		Metrics:   reg,
	})
	if conf.DB.Path == "" {
		logger.Info("DB path is not set, using in-memory database")
	}

	err = service.Init(ctx)
	if err != nil {
		logger.Error("initialization error", zap.Error(err))
		os.Exit(1)
	}
	defer service.Close()

	if *queryFlag != "" {
		err = runQuery(ctx, service, *queryFlag)
	} else {
		err = serve(ctx, service, conf, logger)
	}
	if err != nil {
		logger.Error("exit with error", zap.Error(err))
		service.Close()
		os.Exit(1)
	}
}

func runQuery(ctx context.Context, service *duckhttp.Service, query string) error {
	rows, err := service.Query(ctx, query)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func serve(ctx context.Context, service *duckhttp.Service, conf Config, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              conf.Bind,
		Handler:           corsMiddleware(conf.Cors)(service),
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		logger.Info("starting server", zap.String("bind", conf.Bind), zap.Bool("debug", conf.DebugMode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}
