package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/noah-isme/rubric-grader-api/pkg/config"
)

const (
	postgresDriver   = "postgres"
	applicationName  = "rubric-grader"
	connectRetryBase = 500 * time.Millisecond
)

// NewPostgres connects to PostgreSQL, retrying the initial ping
// cfg.ConnectRetries times so the server can start alongside its database.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open(postgresDriver, PostgresDSN(cfg))
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := pingWithRetry(ctx, db, cfg.ConnectRetries); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func pingWithRetry(ctx context.Context, db *sqlx.DB, retries int) error {
	delay := connectRetryBase
	var err error
	for attempt := 0; ; attempt++ {
		if err = db.PingContext(ctx); err == nil || attempt >= retries {
			return err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// PostgresDSN renders the lib/pq connection string for cfg. cfg.URL is
// returned unchanged when set.
func PostgresDSN(cfg config.DatabaseConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	pairs := []struct{ key, value string }{
		{"host", cfg.Host},
		{"port", fmt.Sprint(cfg.Port)},
		{"user", cfg.User},
		{"password", cfg.Password},
		{"dbname", cfg.Name},
		{"sslmode", cfg.SSLMode},
		{"application_name", applicationName},
	}
	parts := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		if pair.value == "" {
			continue
		}
		parts = append(parts, pair.key+"="+quoteDSNValue(pair.value))
	}
	return strings.Join(parts, " ")
}

// quoteDSNValue quotes values holding spaces or quotes as lib/pq expects.
func quoteDSNValue(value string) string {
	if !strings.ContainsAny(value, ` '\`) {
		return value
	}
	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + replacer.Replace(value) + "'"
}
