package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "barberbot:conversation:"

// RedisStore guarda cada conversación como JSON en una clave de redis
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore conecta a redis y verifica la conexión con un ping
func NewRedisStore(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("error conectando a redis %s: %w", addr, err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func redisKey(id string) string {
	return keyPrefix + id
}

func decode(raw string) (State, error) {
	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return State{}, fmt.Errorf("estado corrupto: %w", err)
	}
	return state, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (State, error) {
	raw, err := r.client.Get(ctx, redisKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("error leyendo conversación %s: %w", id, err)
	}
	return decode(raw)
}

func (r *RedisStore) Save(ctx context.Context, id string, state State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("error serializando estado: %w", err)
	}
	if err := r.client.Set(ctx, redisKey(id), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("error guardando conversación %s: %w", id, err)
	}
	return nil
}

// Update usa WATCH para que la lectura y la escritura sean atómicas
func (r *RedisStore) Update(ctx context.Context, id string, fn func(*State)) error {
	key := redisKey(id)
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		var state State
		raw, err := tx.Get(ctx, key).Result()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if state, err = decode(raw); err != nil {
				return err
			}
		}

		fn(&state)
		payload, err := json.Marshal(state)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.ttl)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("error actualizando conversación %s: %w", id, err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("error limpiando conversación %s: %w", id, err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
