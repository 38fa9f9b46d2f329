package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lot-bidding/internal/domain"
	"lot-bidding/pkg/logger"
	"lot-bidding/pkg/utils"

	"github.com/go-redis/redis/v8"
)

// releaseTimeout bounds the final compare-and-delete, separately from the
// caller's context, which may run out while the heartbeat is stopping.
const releaseTimeout = time.Second

const (
	releaseScript = `
        if redis.call("GET", KEYS[1]) == ARGV[1] then
            return redis.call("DEL", KEYS[1])
        else
            return 0
        end
    `
	renewScript = `
        if redis.call("GET", KEYS[1]) == ARGV[1] then
            return redis.call("PEXPIRE", KEYS[1], ARGV[2])
        else
            return 0
        end
    `
)

// RedisLotLockManager hands out per-lot leases backed by SET NX PX.
type RedisLotLockManager struct {
	client *redis.Client
	ttl    time.Duration
	renew  bool
	log    logger.Logger
}

func NewRedisLotLockManager(client *redis.Client, ttl time.Duration, renew bool, log logger.Logger) *RedisLotLockManager {
	return &RedisLotLockManager{
		client: client,
		ttl:    ttl,
		renew:  renew,
		log:    log,
	}
}

func LotLockKey(lotID string) string {
	return fmt.Sprintf("lock:lot:%s", lotID)
}

func (r *RedisLotLockManager) Acquire(ctx context.Context, lotID string) (domain.Lease, error) {
	key := LotLockKey(lotID)
	token := utils.GenerateID()

	ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrBusy
	}

	lease := &redisLease{
		manager: r,
		key:     key,
		token:   token,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	if r.renew {
		go lease.maintain()
	} else {
		close(lease.done)
	}

	return lease, nil
}

type redisLease struct {
	manager *RedisLotLockManager
	key     string
	token   string
	once    sync.Once
	stop    chan struct{}
	done    chan struct{}
}

func (l *redisLease) Key() string {
	return l.key
}

// Release stops renewal and deletes the key if it still carries this lease's token.
func (l *redisLease) Release(ctx context.Context) error {
	var err error
	l.once.Do(func() {
		close(l.stop)
		<-l.done

		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		err = l.manager.client.Eval(releaseCtx, releaseScript, []string{l.key}, l.token).Err()
	})
	return err
}

func (l *redisLease) maintain() {
	defer close(l.done)

	ticker := time.NewTicker(l.manager.ttl / 3) // Refresh at 1/3 of TTL
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), min(l.manager.ttl/3, releaseTimeout))
			result, err := l.manager.client.Eval(ctx, renewScript, []string{l.key},
				l.token, l.manager.ttl.Milliseconds()).Int64()
			cancel()

			if err != nil && !errors.Is(err, redis.Nil) {
				l.manager.log.Warn("Failed to renew lot lock", "key", l.key, "error", err)
				continue
			}
			if result == 0 {
				// Lost the lock, stop heartbeat
				l.manager.log.Warn("Lot lock expired before release", "key", l.key)
				return
			}
		}
	}
}
