package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/trip-companion/internal/migrations"
)

// Postgres хранит токен в таблице kv_store.
type Postgres struct {
	DB *sql.DB
}

// NewPostgres подключается к PostgreSQL и применяет миграции из migrationsPath.
func NewPostgres(ctx context.Context, connectionString, migrationsPath string) (*Postgres, error) {
	const op = "tokenstore.NewPostgres"

	db, err := sql.Open("pgx", connectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db, migrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Postgres{DB: db}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	const op = "tokenstore.Postgres.Get"
	var value string
	err := p.DB.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	const op = "tokenstore.Postgres.Set"
	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, keys ...string) error {
	const op = "tokenstore.Postgres.Delete"
	for _, k := range keys {
		if _, err := p.DB.ExecContext(ctx, `DELETE FROM kv_store WHERE key = $1`, k); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

func (p *Postgres) Close() error {
	return p.DB.Close()
}
