// Package pg bootstraps the PostgreSQL layer: a pgx/v5 connection pool with
// retrying startup and goose-driven schema migrations. The API surface is
// deliberately tiny; callers get a plain *pgxpool.Pool and own everything
// after boot.
package pg
