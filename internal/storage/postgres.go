package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// PostgresRegistry stores registrations in PostgreSQL.
type PostgresRegistry struct {
	db       *sql.DB
	ttlHours int
	log      *slog.Logger
}

// NewPostgresRegistry connects, pings and creates the schema if needed.
func NewPostgresRegistry(ctx context.Context, connectionString string, ttlHours int, log *slog.Logger) (*PostgresRegistry, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if log == nil {
		log = slog.Default()
	}
	r := &PostgresRegistry{db: db, ttlHours: ttlHours, log: log}

	if err := r.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Info("postgres registry connected")
	return r, nil
}

func (r *PostgresRegistry) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS registered_news (
		uri TEXT PRIMARY KEY,
		registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_registered_news_registered_at ON registered_news(registered_at);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (r *PostgresRegistry) CheckRegistered(ctx context.Context, uris []string) (map[string]bool, error) {
	out := make(map[string]bool, len(uris))
	if len(uris) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT uri FROM registered_news WHERE uri = ANY($1) AND registered_at > $2`,
		pq.Array(uris), cutoff(time.Now(), r.ttlHours))
	if err != nil {
		return nil, fmt.Errorf("failed to check registrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var uri string
		if err := rows.Scan(&uri); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		out[uri] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read registrations: %w", err)
	}

	for _, uri := range uris {
		if !out[uri] {
			out[uri] = false
		}
	}
	return out, nil
}

// Register inserts uri, or refreshes an expired row. No affected row means it was already registered.
func (r *PostgresRegistry) Register(ctx context.Context, uri string) (bool, error) {
	query := `
		INSERT INTO registered_news (uri, registered_at)
		VALUES ($1, NOW())
		ON CONFLICT (uri) DO UPDATE SET registered_at = NOW()
		WHERE registered_news.registered_at <= $2
	`
	res, err := r.db.ExecContext(ctx, query, uri, cutoff(time.Now(), r.ttlHours))
	if err != nil {
		return false, fmt.Errorf("failed to register %s: %w", uri, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 0, nil
}

// Cleanup deletes expired rows. It is a no-op without a TTL.
func (r *PostgresRegistry) Cleanup(ctx context.Context) error {
	if r.ttlHours <= 0 {
		return nil
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM registered_news WHERE registered_at <= $1`, cutoff(time.Now(), r.ttlHours))
	if err != nil {
		return fmt.Errorf("failed to cleanup: %w", err)
	}

	if rows, _ := res.RowsAffected(); rows > 0 {
		r.log.Info("cleaned up old registrations", "rows", rows)
	}
	return nil
}

// Close closes the database connection.
func (r *PostgresRegistry) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
