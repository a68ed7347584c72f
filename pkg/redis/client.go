package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"FaceGuardConsole/pkg/connection"
)

// Client представляет подключение к Redis
type Client struct {
	Client *redis.Client
}

// Config представляет конфигурацию Redis
type Config struct {
	Addr     string
	Password string
	DB       int
	// Connection pool settings
	PoolSize    int
	MinIdleConn int
	// Повторные попытки подключения, 0 - одна попытка
	MaxRetries    int
	RetryInterval time.Duration
	// Время простоя соединения в пуле
	ConnMaxIdleTime time.Duration
}

// NewConfig создает конфигурацию по умолчанию.
// Консоль держит одно-два соединения, поэтому пул небольшой.
func NewConfig() *Config {
	return &Config{
		Addr:            "localhost:6379",
		Password:        "",
		DB:              0,
		PoolSize:        2,
		MinIdleConn:     0,
		MaxRetries:      2,
		RetryInterval:   500 * time.Millisecond,
		ConnMaxIdleTime: 30 * time.Second,
	}
}

// Connect устанавливает подключение к Redis и проверяет его через PING.
// Неудачные попытки повторяются MaxRetries раз с растущей задержкой.
func Connect(ctx context.Context, config *Config) (*Client, error) {
	var client *redis.Client

	retry := connection.DefaultRetryConfig()
	retry.MaxAttempts = config.MaxRetries + 1
	if config.RetryInterval > 0 {
		retry.InitialDelay = config.RetryInterval
	}
	err := connection.WithRetry(ctx, retry, func(ctx context.Context) error {
		c := redis.NewClient(&redis.Options{
			Addr:            config.Addr,
			Password:        config.Password,
			DB:              config.DB,
			PoolSize:        config.PoolSize,
			MinIdleConns:    config.MinIdleConn,
			ConnMaxIdleTime: config.ConnMaxIdleTime,
			// Таймауты
			DialTimeout:  3 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
			PoolTimeout:  3 * time.Second,
		})

		if err := c.Ping(ctx).Err(); err != nil {
			c.Close()
			return fmt.Errorf("failed to ping redis: %w", err)
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", config.Addr, err)
	}

	return &Client{Client: client}, nil
}

// Close закрывает подключение к Redis
func (r *Client) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// HealthCheck проверяет состояние подключения к Redis
func (r *Client) HealthCheck(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}

	return r.Client.Ping(ctx).Err()
}
