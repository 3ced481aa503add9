package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/duckdb/duckdb-go/v2"
)

type Config struct {
	Path         string `json:"path"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`

	Settings Settings `json:"settings"`
}

// Connect opens the database at config.Path (in-memory when empty) and
// applies the settings.
func Connect(ctx context.Context, config Config) (*Pool, error) {
	pool, err := NewPool(config.Path)
	if err != nil {
		return nil, err
	}

	pool.SetMaxOpenConns(config.MaxOpenConns)
	pool.SetMaxIdleConns(config.MaxIdleConns)

	sql := config.Settings.applySQL()
	if sql != "" {
		_, err = pool.Exec(ctx, sql)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("apply settings: %w", err)
		}
	}

	return pool, nil
}

// Pool shares one DuckDB instance between connections, functions registered
// on any connection are visible to all of them.
type Pool struct {
	connector *duckdb.Connector
	db        *sql.DB
}

func NewPool(path string) (*Pool, error) {
	connector, err := duckdb.NewConnector(path, nil)
	if err != nil {
		return nil, err
	}

	return &Pool{
		connector: connector,
		db:        sql.OpenDB(connector),
	}, nil
}

func (p *Pool) SetMaxIdleConns(n int) {
	p.db.SetMaxIdleConns(n)
}

func (p *Pool) SetMaxOpenConns(n int) {
	p.db.SetMaxOpenConns(n)
}

func (p *Pool) Close() error {
	err := p.db.Close()
	if err != nil {
		return err
	}
	return p.connector.Close()
}

func (p *Pool) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return p.db.ExecContext(ctx, query, args...)
}

func (p *Pool) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return p.db.QueryContext(ctx, query, args...)
}

func (p *Pool) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return p.db.QueryRowContext(ctx, query, args...)
}

// Conn reserves a single connection, used for function registration.
func (p *Pool) Conn(ctx context.Context) (*Connection, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &Connection{conn: conn}, nil
}

type Connection struct {
	conn *sql.Conn
}

func (c *Connection) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.conn.QueryContext(ctx, query, args...)
}

func (c *Connection) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.conn.QueryRowContext(ctx, query, args...)
}

func (c *Connection) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.conn.ExecContext(ctx, query, args...)
}

func (c *Connection) DBConn() *sql.Conn {
	return c.conn
}

func (c *Connection) Close() error {
	return c.conn.Close()
}
