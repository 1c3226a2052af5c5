package blogfront

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MoreLimiter rate-limits load-more requests per IP address with a token
// bucket per client. Buckets idle for longer than the idle window are
// dropped.
type MoreLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	idle    time.Duration
	stop    chan struct{}
	once    sync.Once
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMoreLimiter allows rps requests per second per IP with the given burst.
// Call Stop to end the cleanup goroutine.
func NewMoreLimiter(rps float64, burst int, idle time.Duration) *MoreLimiter {
	if burst < 1 {
		burst = 1
	}
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	l := &MoreLimiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(rps),
		burst:   burst,
		idle:    idle,
		stop:    make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *MoreLimiter) cleanup() {
	ticker := time.NewTicker(l.idle)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.evict(now)
		}
	}
}

func (l *MoreLimiter) evict(now time.Time) {
	cutoff := now.Add(-l.idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, ip)
		}
	}
}

// Allow reports whether ip may issue another request now and consumes a
// token if so.
func (l *MoreLimiter) Allow(ip string) bool {
	l.mu.Lock()
	c, ok := l.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = time.Now()
	l.mu.Unlock()
	return c.limiter.Allow()
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *MoreLimiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}
