// Package tokenstore реализует долговременное key-value хранилище для
// токена доступа к удалённому API и срока его действия.
//
// Ключи фиксированы (KeyAccessToken, KeyTokenExpiresAt). Драйвер выбирается
// конфигом: memory, badger, redis или postgres.
package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/trip-companion/internal/config"
)

const (
	// KeyAccessToken: ключ bearer-токена.
	KeyAccessToken = "access_token"
	// KeyTokenExpiresAt: ключ строки срока действия токена.
	KeyTokenExpiresAt = "token_expires_at"
)

// ErrUnknownDriver возвращается для неизвестного значения token_storage.driver.
var ErrUnknownDriver = errors.New("unknown token storage driver")

// Store описывает контракт хранилища токена.
type Store interface {
	// Get возвращает значение и признак наличия ключа.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set сохраняет значение по ключу.
	Set(ctx context.Context, key, value string) error
	// Delete удаляет ключи, отсутствующие ключи не считаются ошибкой.
	Delete(ctx context.Context, keys ...string) error
	// Close освобождает ресурсы драйвера.
	Close() error
}

// New создаёт хранилище по настройкам из конфига.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	const op = "tokenstore.New"

	var (
		store Store
		err   error
	)
	switch cfg.Driver {
	case "memory":
		store = NewMemory()
	case "badger":
		store, err = NewBadger(cfg.Path)
	case "redis":
		store, err = NewRedis(ctx, cfg.RedisConnection)
	case "postgres":
		store, err = NewPostgres(ctx, cfg.StorageConnectionString, cfg.MigrationsPath)
	default:
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return store, nil
}
