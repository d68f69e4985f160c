package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kanak-erp/kanak/internal/shared"
)

// Store persists drafts between requests.
type Store interface {
	// Save writes d only when the stored copy is still at revision
	// d.Revision-1, and returns ErrStaleDraft otherwise.
	Save(ctx context.Context, d Draft) error
	Load(ctx context.Context, kind Kind, id string) (Draft, error)
	Delete(ctx context.Context, kind Kind, id string) error
	// AcquireSubmitLock returns shared.ErrLocked when another submission of
	// the same draft holds the lock.
	AcquireSubmitLock(ctx context.Context, kind Kind, id string) (release func(context.Context), err error)
	// SubmitLocked reports whether a submission of the draft holds the lock.
	SubmitLocked(ctx context.Context, kind Kind, id string) (bool, error)
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisStore keeps drafts as JSON documents with a sliding TTL.
type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

// NewRedisStore constructs a RedisStore. Drafts idle longer than ttl expire.
func NewRedisStore(client *redis.Client, ttl, lockTTL time.Duration) *RedisStore {
	if lockTTL <= 0 {
		lockTTL = time.Minute
	}
	return &RedisStore{client: client, ttl: ttl, lockTTL: lockTTL}
}

// Save compares the stored revision with d.Revision-1 under WATCH and writes d
// in a MULTI block, so a concurrent writer makes it fail with ErrStaleDraft.
func (s *RedisStore) Save(ctx context.Context, d Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	key := shared.DraftKey(string(d.Kind), d.ID)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		stored, err := storedRevision(ctx, tx, key)
		if err != nil {
			return err
		}
		if stored != d.Revision-1 {
			return fmt.Errorf("%w: revision %d, saving %d", ErrStaleDraft, stored, d.Revision)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: concurrent write", ErrStaleDraft)
	}
	return err
}

// storedRevision reads the revision of the stored draft. A missing draft is
// revision 0.
func storedRevision(ctx context.Context, tx *redis.Tx, key string) (int64, error) {
	payload, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var head struct {
		Revision int64 `json:"revision"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		return 0, err
	}
	return head.Revision, nil
}

// Load returns the stored draft or ErrNotFound.
func (s *RedisStore) Load(ctx context.Context, kind Kind, id string) (Draft, error) {
	payload, err := s.client.Get(ctx, shared.DraftKey(string(kind), id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Draft{}, ErrNotFound
		}
		return Draft{}, err
	}
	var d Draft
	if err := json.Unmarshal(payload, &d); err != nil {
		return Draft{}, err
	}
	return d, nil
}

// Delete removes the draft, returning ErrNotFound when it was not stored.
func (s *RedisStore) Delete(ctx context.Context, kind Kind, id string) error {
	n, err := s.client.Del(ctx, shared.DraftKey(string(kind), id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) AcquireSubmitLock(ctx context.Context, kind Kind, id string) (func(context.Context), error) {
	key := shared.DraftLockKey(string(kind), id)
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, key, token, s.lockTTL).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrLocked
	}
	return func(ctx context.Context) {
		_ = releaseScript.Run(ctx, s.client, []string{key}, token).Err()
	}, nil
}

func (s *RedisStore) SubmitLocked(ctx context.Context, kind Kind, id string) (bool, error) {
	n, err := s.client.Exists(ctx, shared.DraftLockKey(string(kind), id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
