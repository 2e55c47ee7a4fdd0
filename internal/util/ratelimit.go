package util

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedLimiter holds one token bucket per key. Each bucket allows a single
// event per interval with a burst of one, so a key's first event is always
// allowed.
type KeyedLimiter struct {
	every time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewKeyedLimiter creates a limiter allowing one event per key every
// interval. A non-positive interval disables limiting.
func NewKeyedLimiter(every time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		every:    every,
		limiters: make(map[string]*rate.Limiter),
	}
}

// AllowAt reports whether an event for key may happen at t, consuming a token
// if so.
func (kl *KeyedLimiter) AllowAt(key string, t time.Time) bool {
	if kl.every <= 0 {
		return true
	}
	return kl.limiter(key).AllowN(t, 1)
}

// Reset forgets the bucket for key, so its next event is allowed.
func (kl *KeyedLimiter) Reset(key string) {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	delete(kl.limiters, key)
}

func (kl *KeyedLimiter) limiter(key string) *rate.Limiter {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	l, ok := kl.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Every(kl.every), 1)
		kl.limiters[key] = l
	}
	return l
}
