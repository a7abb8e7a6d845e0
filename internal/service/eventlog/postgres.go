package eventlog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSink inserts records directly into Postgres tables whose columns match the record keys.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink connects a small pool and verifies it with a ping.
func NewPostgresSink(ctx context.Context, databaseURL string) (*PostgresSink, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolCfg.MaxConns = 4
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(pingCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresSink{pool: pool}, nil
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) Write(ctx context.Context, table string, record map[string]any) error {
	query, args, err := buildInsert(table, record)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

func (s *PostgresSink) Close() {
	s.pool.Close()
}

// buildInsert renders a parameterised INSERT with quoted identifiers and columns in sorted order.
func buildInsert(table string, record map[string]any) (string, []any, error) {
	if table == "" {
		return "", nil, fmt.Errorf("table name is required")
	}
	if len(record) == 0 {
		return "", nil, fmt.Errorf("record for %s has no columns", table)
	}

	columns := make([]string, 0, len(record))
	for column := range record {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, column := range columns {
		quoted[i] = pgx.Identifier{column}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = record[column]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{table}.Sanitize(),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)
	return query, args, nil
}
