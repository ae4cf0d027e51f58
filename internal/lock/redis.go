package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/erazemk/oprema/internal/model"
)

// releaseScript deletes the lease only if the caller still owns it, so a
// holder whose lease expired cannot drop a successor's lease.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisBackend keeps leases as Redis keys set with NX and a PX expiry.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

var _ Backend = (*RedisBackend)(nil)

// NewRedisBackend returns a lease backend over the given client. Keys are
// named prefix + organization ID.
func NewRedisBackend(client *redis.Client, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = "oprema:lock:"
	}
	return &RedisBackend{client: client, prefix: prefix}
}

func (b *RedisBackend) TryAcquire(ctx context.Context, orgID, owner string, ttl time.Duration) (bool, error) {
	ok, err := b.client.SetNX(ctx, b.prefix+orgID, owner, ttl).Result()
	if err != nil {
		return false, &model.StorageError{Op: "acquiring organization lock", Err: err}
	}
	return ok, nil
}

func (b *RedisBackend) Release(ctx context.Context, orgID, owner string) error {
	if err := releaseScript.Run(ctx, b.client, []string{b.prefix + orgID}, owner).Err(); err != nil {
		return &model.StorageError{Op: "releasing organization lock", Err: err}
	}
	return nil
}
