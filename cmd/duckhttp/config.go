package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/hugr-lab/duckdb-http/pkg/db"
	"github.com/hugr-lab/duckdb-http/pkg/fetch"
	"github.com/hugr-lab/duckdb-http/pkg/handles"
	"github.com/hugr-lab/duckdb-http/pkg/logging"
	"github.com/hugr-lab/duckdb-http/pkg/meta"
)

type Config struct {
	Bind      string
	DebugMode bool
	NoNetwork bool
	Metrics   bool

	Log     logging.Config
	DB      db.Config
	Fetch   fetch.Config
	Handles handles.Config

	Cors CorsConfig
}

func init() {
	initEnvs()
}

func initEnvs() {
	_ = godotenv.Overload()
	viper.SetDefault("BIND", ":15100")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("NO_NETWORK", false)
	viper.SetDefault("METRICS", true)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_PATH", "")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 0)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 0)
	viper.SetDefault("HTTP_TIMEOUT", "0s")
	viper.SetDefault("HTTP_RATE_LIMIT", "0s")
	viper.SetDefault("HTTP_USER_AGENT", "duckdb-http/"+meta.VersionString())
	viper.SetDefault("HANDLES_CAPACITY", 1024)
	viper.SetDefault("HANDLES_TTL", "1h")
	viper.AutomaticEnv()
}

func loadConfig() Config {
	debug := viper.GetBool("DEBUG")
	return Config{
		Bind:      viper.GetString("BIND"),
		DebugMode: debug,
		NoNetwork: viper.GetBool("NO_NETWORK"),
		Metrics:   viper.GetBool("METRICS"),
		Log: logging.Config{
			Level:       viper.GetString("LOG_LEVEL"),
			Development: debug,
		},
		DB: db.Config{
			Path:         viper.GetString("DB_PATH"),
			MaxOpenConns: viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: viper.GetInt("DB_MAX_IDLE_CONNS"),
			Settings: db.Settings{
				MaxMemory:             viper.GetInt("DB_MAX_MEMORY"),
				Threads:               viper.GetInt("DB_THREADS"),
				TempDirectory:         viper.GetString("DB_TEMP_DIRECTORY"),
				EnableLogging:         viper.GetBool("DB_ENABLE_LOGGING"),
				DisableExternalAccess: viper.GetBool("DB_DISABLE_EXTERNAL_ACCESS"),
			},
		},
		Fetch: fetch.Config{
			Timeout:   viper.GetDuration("HTTP_TIMEOUT"),
			RateLimit: viper.GetDuration("HTTP_RATE_LIMIT"),
			UserAgent: viper.GetString("HTTP_USER_AGENT"),
		},
		Handles: handles.Config{
			Capacity: viper.GetInt("HANDLES_CAPACITY"),
			TTL:      viper.GetDuration("HANDLES_TTL"),
		},
		Cors: CorsConfig{
			CorsAllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			CorsAllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
			CorsAllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
		},
	}
}
