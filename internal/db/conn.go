package db

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hurou927/xampp-tools/internal/config"
	"github.com/hurou927/xampp-tools/internal/tabular"
)

// NewPool creates a new pgx connection pool from config.
func NewPool(ctx context.Context, cfg *config.Connection) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// PgxSource answers catalog queries from a PostgreSQL pool, rendering each
// result set as tab-delimited text with a header line.
type PgxSource struct {
	Pool *pgxpool.Pool
}

// Query implements schema.MetadataSource.
func (s *PgxSource) Query(ctx context.Context, sql string) (string, error) {
	rows, err := s.Pool.Query(ctx, sql)
	if err != nil {
		return "", fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}

	var data [][]any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return "", fmt.Errorf("reading catalog row: %w", err)
		}
		data = append(data, vals)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("reading catalog rows: %w", err)
	}

	var buf bytes.Buffer
	if err := tabular.Encode(&buf, cols, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
