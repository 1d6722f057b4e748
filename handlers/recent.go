package handlers

import (
	"sync"
	"time"
)

// recentEvents remembers event keys for a short while so gateway redeliveries
// are processed once.
type recentEvents struct {
	mu          sync.Mutex
	seen        map[string]time.Time
	ttl         time.Duration
	lastCleanup time.Time
	now         func() time.Time
}

func newRecentEvents(ttl time.Duration) *recentEvents {
	return &recentEvents{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

// firstSeen records key and reports whether it was unseen within the TTL.
func (r *recentEvents) firstSeen(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	// 定期清理旧记录
	if now.Sub(r.lastCleanup) > 2*r.ttl {
		for k, at := range r.seen {
			if now.Sub(at) > r.ttl {
				delete(r.seen, k)
			}
		}
		r.lastCleanup = now
	}

	if at, ok := r.seen[key]; ok && now.Sub(at) < r.ttl {
		return false
	}
	r.seen[key] = now
	return true
}

func (r *recentEvents) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}
