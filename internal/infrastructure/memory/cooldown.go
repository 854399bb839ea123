package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultSendCooldown is the minimum spacing between two sends to one recipient.
const DefaultSendCooldown = 5 * time.Second

// Cooldown tracks the last successful send per recipient in a go-cache whose
// items expire with the window. Acquire makes the check and the in-flight claim
// in one critical section, so two concurrent requests for the same recipient
// cannot both dispatch.
type Cooldown struct {
	mu       sync.Mutex
	sent     *cache.Cache // recipient -> time.Time of the last successful send
	inFlight *cache.Cache // recipient -> struct{}
	window   time.Duration
	now      func() time.Time
}

// NewCooldown constructs a Cooldown. A non-positive window uses DefaultSendCooldown
// and a nil clock uses time.Now.
func NewCooldown(window time.Duration, now func() time.Time) *Cooldown {
	if window <= 0 {
		window = DefaultSendCooldown
	}
	if now == nil {
		now = time.Now
	}
	return &Cooldown{
		sent:     cache.New(window, time.Minute),
		inFlight: cache.New(cache.NoExpiration, 0),
		window:   window,
		now:      now,
	}
}

// ShouldSuppress reports whether a successful send to recipient happened within
// the window, or a send to recipient is currently in flight.
func (c *Cooldown) ShouldSuppress(recipient string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key(recipient)
	if _, ok := c.inFlight.Get(k); ok {
		return true
	}
	return c.recentLocked(k, c.now())
}

// MarkSent records a successful send to recipient at the current time.
func (c *Cooldown) MarkSent(recipient string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.sweepLocked(now)
	c.sent.Set(key(recipient), now, c.window)
}

// Acquire claims recipient for one dispatch. ok is false when the send must be
// suppressed; otherwise the caller owns the Lease and must call Done exactly once.
func (c *Cooldown) Acquire(recipient string) (lease *Lease, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.sweepLocked(now)
	k := key(recipient)
	if c.recentLocked(k, now) {
		return nil, false
	}
	if err := c.inFlight.Add(k, struct{}{}, cache.NoExpiration); err != nil {
		return nil, false
	}
	return &Lease{c: c, key: k}, true
}

// Len returns the number of tracked recipients.
func (c *Cooldown) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked(c.now())
	keys := c.sent.Items()
	for k := range c.inFlight.Items() {
		keys[k] = cache.Item{}
	}
	return len(keys)
}

func (c *Cooldown) lastSentLocked(k string) (time.Time, bool) {
	v, ok := c.sent.Get(k)
	if !ok {
		return time.Time{}, false
	}
	return v.(time.Time), true
}

func (c *Cooldown) recentLocked(k string, now time.Time) bool {
	last, ok := c.lastSentLocked(k)
	return ok && now.Sub(last) < c.window
}

func (c *Cooldown) sweepLocked(now time.Time) {
	c.sent.DeleteExpired()
	for k, item := range c.sent.Items() {
		if now.Sub(item.Object.(time.Time)) >= c.window {
			c.sent.Delete(k)
		}
	}
}

// Lease is an in-flight claim on a recipient returned by Cooldown.Acquire.
type Lease struct {
	c    *Cooldown
	key  string
	once sync.Once
}

// Done ends the claim. The last-sent time is updated only when sent is true, so
// a failed dispatch leaves the recipient's history exactly as it was.
func (l *Lease) Done(sent bool) {
	l.once.Do(func() {
		l.c.mu.Lock()
		defer l.c.mu.Unlock()
		if sent {
			l.c.sent.Set(l.key, l.c.now(), l.c.window)
		}
		l.c.inFlight.Delete(l.key)
	})
}

func key(recipient string) string {
	return strings.ToLower(strings.TrimSpace(recipient))
}
