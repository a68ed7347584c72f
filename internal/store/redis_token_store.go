package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey - ключ слота токена в Redis
const DefaultRedisKey = "faceguard:console:" + TokenKey

const redisOpTimeout = 3 * time.Second

// RedisTokenStore хранит токен в Redis, слот общий для всех консолей хоста
type RedisTokenStore struct {
	client *redis.Client
	key    string
}

// NewRedisTokenStore создает хранилище поверх готового клиента
func NewRedisTokenStore(client *redis.Client, key string) *RedisTokenStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisTokenStore{client: client, key: key}
}

// Set сохраняет токен без TTL: срок жизни решает бэкенд
func (s *RedisTokenStore) Set(token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := s.client.Set(ctx, s.key, token, 0).Err(); err != nil {
		return fmt.Errorf("ошибка сохранения токена в Redis: %w", err)
	}
	return nil
}

// Get возвращает токен. Недоступный Redis считается пустым слотом.
func (s *RedisTokenStore) Get() (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	token, err := s.client.Get(ctx, s.key).Result()
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

// Clear удаляет токен из Redis
func (s *RedisTokenStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := s.client.Del(ctx, s.key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("ошибка удаления токена из Redis: %w", err)
	}
	return nil
}
