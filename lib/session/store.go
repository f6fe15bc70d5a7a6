package session

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Provider хранилище состояния диалога с TTL на каждый ключ.
// Каждый вызов атомарен сам по себе, переходы из нескольких ключей - нет.
type Provider interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set ttl = 0 - без срока жизни
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Append(ctx context.Context, key, value string, ttl time.Duration) error
	List(ctx context.Context, key string) ([]string, error)
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
}

var Instance Provider

func NewHandler(client redis.UniversalClient, keyPrefix string) {
	Instance = NewInstance(client, keyPrefix)
}

func NewInstance(client redis.UniversalClient, keyPrefix string) Provider {
	prefix := ""
	if keyPrefix != "" {
		prefix = keyPrefix + keySeparator
	}
	return &impl{
		client: client,
		prefix: prefix,
	}
}

type impl struct {
	client redis.UniversalClient
	prefix string
}

func (i impl) key(key string) string {
	return i.prefix + key
}

func (i impl) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := i.client.Get(ctx, i.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "ошибка чтения ключа %s", key)
	}
	return value, true, nil
}

func (i impl) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	err := i.client.Set(ctx, i.key(key), value, ttl).Err()
	if err != nil {
		return errors.Wrapf(err, "ошибка записи ключа %s", key)
	}
	return nil
}

func (i impl) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	fullKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		fullKeys = append(fullKeys, i.key(key))
	}
	if err := i.client.Del(ctx, fullKeys...).Err(); err != nil {
		return errors.Wrap(err, "ошибка удаления ключей")
	}
	return nil
}

func (i impl) Exists(ctx context.Context, key string) (bool, error) {
	count, err := i.client.Exists(ctx, i.key(key)).Result()
	if err != nil {
		return false, errors.Wrapf(err, "ошибка проверки ключа %s", key)
	}
	return count > 0, nil
}

func (i impl) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := i.client.Expire(ctx, i.key(key), ttl).Err(); err != nil {
		return errors.Wrapf(err, "ошибка продления ключа %s", key)
	}
	return nil
}

func (i impl) Append(ctx context.Context, key, value string, ttl time.Duration) error {
	fullKey := i.key(key)
	_, err := i.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, fullKey, value)
		if ttl > 0 {
			pipe.Expire(ctx, fullKey, ttl)
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "ошибка добавления значения в %s", key)
	}
	return nil
}

func (i impl) List(ctx context.Context, key string) ([]string, error) {
	values, err := i.client.LRange(ctx, i.key(key), 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, errors.Wrapf(err, "ошибка чтения списка %s", key)
	}
	return values, nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func (i impl) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	pattern := globEscaper.Replace(i.key(prefix)) + "*"
	var deleted int64
	iter := i.client.Scan(ctx, 0, pattern, 100).Iterator()
	batch := make([]string, 0, 100)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		count, err := i.client.Del(ctx, batch...).Result()
		if err != nil {
			return err
		}
		deleted += count
		batch = batch[:0]
		return nil
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return deleted, errors.Wrapf(err, "ошибка удаления по префиксу %s", prefix)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, errors.Wrapf(err, "ошибка поиска по префиксу %s", prefix)
	}
	if err := flush(); err != nil {
		return deleted, errors.Wrapf(err, "ошибка удаления по префиксу %s", prefix)
	}
	return deleted, nil
}
