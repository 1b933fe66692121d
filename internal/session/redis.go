package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DukeRupert/svelectricals/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// maxUpdateRetries bounds optimistic transaction retries on contention.
const maxUpdateRetries = 10

// unlockScript deletes the lock only if it still holds the caller's token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore keeps sessions in Redis as JSON documents with a TTL, so form
// state survives restarts and is shared between instances.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisStore creates a store on an existing client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl, prefix: "svw:form:"}
}

// NewRedisClient parses a redis:// URL and verifies the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("session: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("session: ping: %w", err)
	}
	return client, nil
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) lockKey(id string) string {
	return s.prefix + id + ":lock"
}

func decodeState(data []byte) (*domain.FormState, error) {
	state := domain.NewFormState()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("session: decode state: %w", err)
	}
	if state.Errors == nil {
		state.Errors = make(map[string]string)
	}
	return state, nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, id string) (*domain.FormState, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.NewFormState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: get: %w", err)
	}
	return decodeState(data)
}

// Update implements Store with WATCH/MULTI, retrying when another writer
// touched the key between read and write.
func (s *RedisStore) Update(ctx context.Context, id string, fn UpdateFunc) (*domain.FormState, error) {
	key := s.key(id)
	var result *domain.FormState

	txf := func(tx *redis.Tx) error {
		state := domain.NewFormState()
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("session: get: %w", err)
		default:
			if state, err = decodeState(data); err != nil {
				return err
			}
		}

		if err := fn(state); err != nil {
			return err
		}

		out, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("session: encode state: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		result = state
		return nil
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("session: update %s: too much contention", id)
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id), s.lockKey(id)).Err(); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

// TryLock implements Store using SET NX with an expiry, so a crashed
// holder cannot keep the lock forever.
func (s *RedisStore) TryLock(ctx context.Context, id string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, s.lockKey(id), token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("session: lock: %w", err)
	}
	if !ok {
		return "", ErrLocked
	}
	return token, nil
}

// Unlock implements Store with a compare-and-delete script.
func (s *RedisStore) Unlock(ctx context.Context, id, token string) error {
	if err := unlockScript.Run(ctx, s.client, []string{s.lockKey(id)}, token).Err(); err != nil {
		return fmt.Errorf("session: unlock: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
