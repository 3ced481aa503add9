package db

import (
	"fmt"
	"strings"
)

type Settings struct {
	MaxMemory     int    `json:"max_memory"` // GB
	Threads       int    `json:"threads"`
	TempDirectory string `json:"temp_directory"`
	EnableLogging bool   `json:"enable_logging"`
	// DisableExternalAccess stops DuckDB's own file and network readers,
	// it does not affect the http_* functions.
	DisableExternalAccess bool `json:"disable_external_access"`
}

func (s Settings) applySQL() string {
	var sql []string

	if s.MaxMemory != 0 {
		sql = append(sql, fmt.Sprintf("SET max_memory = '%dGB';", s.MaxMemory))
	}
	if s.Threads != 0 {
		sql = append(sql, fmt.Sprintf("SET threads = %d;", s.Threads))
	}
	if s.TempDirectory != "" {
		sql = append(sql, fmt.Sprintf("SET temp_directory = %s;", sqlString(s.TempDirectory)))
	}
	if s.EnableLogging {
		sql = append(sql, "SET enable_logging = true;")
	}
	if s.DisableExternalAccess {
		sql = append(sql, "SET enable_external_access = false;")
	}

	return strings.Join(sql, "\n")
}

func sqlString(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}
