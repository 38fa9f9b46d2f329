package leader

import (
	"context"
	"errors"
	"sync"
	"time"

	"lot-bidding/pkg/logger"

	"github.com/go-redis/redis/v8"
)

const DefaultLeaderKey = "lot_audit_leader"

const (
	releaseScript = `
        if redis.call("GET", KEYS[1]) == ARGV[1] then
            return redis.call("DEL", KEYS[1])
        else
            return 0
        end
    `
	extendScript = `
        if redis.call("GET", KEYS[1]) == ARGV[1] then
            return redis.call("PEXPIRE", KEYS[1], ARGV[2])
        else
            return 0
        end
    `
)

type RedisLeaderElection struct {
	client    *redis.Client
	key       string
	ttl       time.Duration
	log       logger.Logger
	mutex     sync.Mutex
	heartbeat map[string]chan struct{}
}

func NewRedisLeaderElection(client *redis.Client, key string, ttl time.Duration, log logger.Logger) *RedisLeaderElection {
	return &RedisLeaderElection{
		client:    client,
		key:       key,
		ttl:       ttl,
		log:       log,
		heartbeat: make(map[string]chan struct{}),
	}
}

func (r *RedisLeaderElection) BecomeLeader(ctx context.Context, instanceID string) (bool, error) {
	result, err := r.client.SetNX(ctx, r.key, instanceID, r.ttl).Result()
	if err != nil {
		return false, err
	}

	if result {
		// Start heartbeat to maintain leadership
		stop := make(chan struct{})
		r.mutex.Lock()
		if previous, exists := r.heartbeat[instanceID]; exists {
			close(previous)
		}
		r.heartbeat[instanceID] = stop
		r.mutex.Unlock()

		go r.maintainLeadership(instanceID, stop)
	}

	return result, nil
}

func (r *RedisLeaderElection) IsLeader(ctx context.Context, instanceID string) (bool, error) {
	currentLeader, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	return currentLeader == instanceID, nil
}

func (r *RedisLeaderElection) ReleaseLeadership(ctx context.Context, instanceID string) error {
	r.stopHeartbeat(instanceID)

	// Use Lua script to ensure atomic release
	return r.client.Eval(ctx, releaseScript, []string{r.key}, instanceID).Err()
}

func (r *RedisLeaderElection) stopHeartbeat(instanceID string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if stop, exists := r.heartbeat[instanceID]; exists {
		close(stop)
		delete(r.heartbeat, instanceID)
	}
}

func (r *RedisLeaderElection) maintainLeadership(instanceID string, stop <-chan struct{}) {
	ticker := time.NewTicker(r.ttl / 3) // Refresh at 1/3 of TTL
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		// Extend TTL if still leader
		result, err := r.client.Eval(ctx, extendScript, []string{r.key},
			instanceID, r.ttl.Milliseconds()).Int64()

		cancel()

		if err != nil || result == 0 {
			// Lost leadership, stop heartbeat
			r.log.Warn("Lost leadership", "instance_id", instanceID, "error", err)
			r.mutex.Lock()
			if r.heartbeat[instanceID] == stop {
				delete(r.heartbeat, instanceID)
			}
			r.mutex.Unlock()
			return
		}
	}
}
