package sweeper

import (
	"context"
	"errors"
	"fmt"
	"slotkeeper/pkg/logger"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLeaseNotOwned = errors.New("lease not owned by this instance")

// Leaser hands out short exclusive leases. Tokens identify the holder so a
// lease that already expired and was re-acquired elsewhere is never released.
type Leaser interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, string, error)
	Unlock(ctx context.Context, key, token string) error
}

// compare-and-delete keeps the ownership check and the delete atomic
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLeaser struct {
	client *redis.Client
	log    *logger.Logger
}

func NewRedisLeaser(client *redis.Client, log *logger.Logger) *RedisLeaser {
	return &RedisLeaser{
		client: client,
		log:    log,
	}
}

func (l *RedisLeaser) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, string, error) {
	token := uuid.NewString()
	acquired, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, "", fmt.Errorf("failed to acquire lease %s: %w", key, err)
	}
	if !acquired {
		return false, "", nil
	}

	l.log.Debug("Lease acquired", "key", key, "ttl", ttl)
	return true, token, nil
}

func (l *RedisLeaser) Unlock(ctx context.Context, key, token string) error {
	deleted, err := unlockScript.Run(ctx, l.client, []string{key}, token).Int()
	if err != nil {
		return fmt.Errorf("failed to release lease %s: %w", key, err)
	}
	if deleted == 0 {
		return ErrLeaseNotOwned
	}
	return nil
}
