// Package memory holds in-process implementations of the lot lock and the
// settlement ledger for single-instance deployments and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lot-bidding/internal/domain"
	"lot-bidding/pkg/utils"
)

type lockEntry struct {
	token     string
	expiresAt time.Time
}

type LotLockManager struct {
	ttl   time.Duration
	now   func() time.Time
	locks map[string]lockEntry
	mutex sync.Mutex
}

func NewLotLockManager(ttl time.Duration) *LotLockManager {
	return &LotLockManager{
		ttl:   ttl,
		now:   time.Now,
		locks: make(map[string]lockEntry),
	}
}

func lockKey(lotID string) string {
	return fmt.Sprintf("lock:lot:%s", lotID)
}

func (m *LotLockManager) Acquire(ctx context.Context, lotID string) (domain.Lease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := lockKey(lotID)
	now := m.now()

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if held, exists := m.locks[key]; exists && now.Before(held.expiresAt) {
		return nil, domain.ErrBusy
	}

	lease := &lotLease{manager: m, key: key, token: utils.GenerateID()}
	m.locks[key] = lockEntry{token: lease.token, expiresAt: now.Add(m.ttl)}
	return lease, nil
}

func (m *LotLockManager) release(key, token string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if held, exists := m.locks[key]; exists && held.token == token {
		delete(m.locks, key)
	}
}

type lotLease struct {
	manager *LotLockManager
	key     string
	token   string
	once    sync.Once
}

func (l *lotLease) Key() string {
	return l.key
}

func (l *lotLease) Release(ctx context.Context) error {
	l.once.Do(func() {
		l.manager.release(l.key, l.token)
	})
	return nil
}
