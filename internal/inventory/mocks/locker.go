package mocks

import (
	"context"
	"sync"
	"time"
)

// MockLocker is an in-memory stand-in for the redis scope lock.
type MockLocker struct {
	mu   sync.Mutex
	held map[string]string

	AcquireCalls []string
	ReleaseCalls []string

	// FailAcquire makes every acquisition attempt report contention.
	FailAcquire bool
}

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}}
}

func (l *MockLocker) AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.AcquireCalls = append(l.AcquireCalls, key)
	if l.FailAcquire {
		return false, nil
	}
	if _, taken := l.held[key]; taken {
		return false, nil
	}
	l.held[key] = value
	return true, nil
}

func (l *MockLocker) ReleaseLock(ctx context.Context, key, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ReleaseCalls = append(l.ReleaseCalls, key)
	if l.held[key] == value {
		delete(l.held, key)
	}
	return nil
}

// Held reports whether any caller currently holds key.
func (l *MockLocker) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}
