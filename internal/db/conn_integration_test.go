//go:build integration

package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/hurou927/xampp-tools/internal/config"
	"github.com/hurou927/xampp-tools/internal/graph"
	"github.com/hurou927/xampp-tools/internal/policy"
	"github.com/hurou927/xampp-tools/internal/schema"
)

const fixture = `
CREATE TABLE users (
  id serial PRIMARY KEY,
  email text NOT NULL
);
CREATE TABLE orders (
  id serial PRIMARY KEY,
  user_id integer NOT NULL REFERENCES users(id),
  coupon_code text
);
CREATE TABLE notes (
  id serial PRIMARY KEY,
  order_id integer REFERENCES orders(id)
);
CREATE TABLE warehouses (
  region text,
  code text,
  PRIMARY KEY (region, code)
);
CREATE TABLE stock (
  id serial PRIMARY KEY,
  region text NOT NULL,
  code text NOT NULL,
  CONSTRAINT fk_parent FOREIGN KEY (region, code) REFERENCES warehouses(region, code)
);
CREATE TABLE audits (
  id serial PRIMARY KEY,
  note_id integer,
  CONSTRAINT fk_parent FOREIGN KEY (note_id) REFERENCES notes(id)
);
`

func TestPgxSourceDiagram(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("shop"),
		postgres.WithUsername("reader"),
		postgres.WithPassword("secret"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	pool, err := NewPool(ctx, &config.Connection{
		Host:     host,
		Port:     port.Int(),
		Database: "shop",
		User:     "reader",
		Password: "secret",
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Exec(ctx, fixture)
	require.NoError(t, err)

	res, err := schema.Introspect(ctx, &PgxSource{Pool: pool}, schema.CatalogFor(policy.Postgres), "public", nil)
	require.NoError(t, err)

	g, err := graph.Build(res.Rows, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"audits", "notes", "orders", "stock", "users", "warehouses"}, g.TableNames())
	assert.ElementsMatch(t, []graph.Edge{
		{ChildTable: "audits", ChildColumn: "note_id", ParentTable: "notes", ParentColumn: "id"},
		{ChildTable: "notes", ChildColumn: "order_id", ParentTable: "orders", ParentColumn: "id"},
		{ChildTable: "orders", ChildColumn: "user_id", ParentTable: "users", ParentColumn: "id"},
		{ChildTable: "stock", ChildColumn: "region", ParentTable: "warehouses", ParentColumn: "region"},
		{ChildTable: "stock", ChildColumn: "code", ParentTable: "warehouses", ParentColumn: "code"},
	}, g.Edges())

	out := graph.Mermaid(g, graph.MermaidOptions{ShowColumns: true, ShowTypes: true})
	assert.Contains(t, out, "%% database: public")
	assert.Contains(t, out, "        integer user_id FK\n")
	assert.Contains(t, out, `users ||--o{ orders : "user_id"`)
	assert.Contains(t, out, `orders |o--o{ notes : "order_id"`)
	assert.Contains(t, out, `warehouses ||--o{ stock : "region"`)
	assert.Contains(t, out, `warehouses ||--o{ stock : "code"`)
	assert.Contains(t, out, `notes |o--o{ audits : "note_id"`)
}
