// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string   `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string   `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	CORSOrigins             []string `yaml:"cors_origins" env:"CORS_ORIGINS" env-default:"http://localhost:5173"`
	HTTPServer              `yaml:"http_server"`
	Backend                 `yaml:"backend"`
	Session                 `yaml:"session"`
	TokenStorage            `yaml:"token_storage"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	Notifications           `yaml:"notifications"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"15s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	// LoginRate и LoginBurst ограничивают частоту попыток входа.
	LoginRate  float64 `yaml:"login_rate" env-default:"1"`
	LoginBurst int     `yaml:"login_burst" env-default:"3"`
}

// Backend структура для настройки удалённого API планировщика поездок
type Backend struct {
	BaseURL        string        `yaml:"base_url" env:"BACKEND_BASE_URL" env-default:"http://localhost:8001/api/v1"`
	TimeoutBackend time.Duration `yaml:"timeout" env-default:"30s"`
}

// Session структура для настройки жизненного цикла сессии
type Session struct {
	ResolveTimeout time.Duration `yaml:"resolve_timeout" env-default:"10s"`
}

// TokenStorage структура для выбора хранилища токена доступа.
// Driver: memory, badger, redis или postgres.
type TokenStorage struct {
	Driver string `yaml:"driver" env:"TOKEN_STORAGE_DRIVER" env-default:"badger"`
	Path   string `yaml:"path" env:"TOKEN_STORAGE_PATH" env-default:"./data/tokens"`
	// MigrationsPath используется только драйвером postgres.
	MigrationsPath string `yaml:"migrations_path" env-default:"./migrations"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// RabbitMQ структура для подключения к брокеру событий.
// Пустой URL отключает приём событий.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
	EventsQueue        string        `yaml:"events_queue" env-default:"trip-companion.events"`
	EventsRoutingKey   string        `yaml:"events_routing_key" env-default:"event"`
}

// Notifications структура для настройки ленты уведомлений
type Notifications struct {
	GeneratorEnabled  bool          `yaml:"generator_enabled" env-default:"true"`
	GeneratorMinDelay time.Duration `yaml:"generator_min_delay" env-default:"30s"`
	GeneratorMaxDelay time.Duration `yaml:"generator_max_delay" env-default:"60s"`
	RefreshInterval   time.Duration `yaml:"refresh_interval" env-default:"1m"`
	RelabelDelay      time.Duration `yaml:"relabel_delay" env-default:"1s"`
	PopupDisplay      time.Duration `yaml:"popup_display" env-default:"5s"`
}

// MustLoad функция для загрузки конфига по пути из переменной CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает конфиг из файла, значения из окружения имеют приоритет.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.GeneratorMinDelay <= 0 || c.GeneratorMaxDelay < c.GeneratorMinDelay {
		return fmt.Errorf("invalid generator delay window [%s, %s]", c.GeneratorMinDelay, c.GeneratorMaxDelay)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh_interval must be positive")
	}
	if c.Driver == "postgres" && c.StorageConnectionString == "" {
		return fmt.Errorf("storage_connection_string is required for postgres token storage")
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Backend:\n"+
			"  BaseURL: %s\n"+
			"  Timeout: %s\n"+
			"TokenStorage:\n"+
			"  Driver: %s\n"+
			"  Path: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"RabbitMQ:\n"+
			"  Enabled: %t\n"+
			"  Queue: %s\n",
		c.Env,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.BaseURL,
		c.TimeoutBackend,
		c.Driver,
		c.Path,
		c.AddressRedis,
		c.DB,
		c.RabbitMQURL != "",
		c.EventsQueue,
	)
}
