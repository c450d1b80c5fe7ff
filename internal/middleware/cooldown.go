package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/keshon/headroom/internal/bot"
	"github.com/keshon/headroom/pkg/cmd"
)

// Cooldown hands out one token bucket per user. Commands from a user whose
// bucket is empty are dropped without a reply.
//
// A bucket that has refilled completely is indistinguishable from a new one,
// so such buckets are dropped every time a full refill period has passed.
type Cooldown struct {
	every  rate.Limit
	burst  int
	refill time.Duration
	now    func() time.Time

	mu        sync.Mutex
	users     map[string]*rate.Limiter
	lastSweep time.Time
}

// NewCooldown allows burst commands per user, refilled one every per.
func NewCooldown(per time.Duration, burst int) *Cooldown {
	if burst < 1 {
		burst = 1
	}
	return &Cooldown{
		every:  rate.Every(per),
		burst:  burst,
		refill: per * time.Duration(burst),
		now:    time.Now,
		users:  make(map[string]*rate.Limiter),
	}
}

// Allow reports whether userID may run a command now.
func (c *Cooldown) Allow(userID string) bool {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.lastSweep) >= c.refill {
		c.sweep(now)
		c.lastSweep = now
	}
	lim, ok := c.users[userID]
	if !ok {
		lim = rate.NewLimiter(c.every, c.burst)
		c.users[userID] = lim
	}
	return lim.AllowN(now, 1)
}

// sweep drops full buckets. Caller holds c.mu.
func (c *Cooldown) sweep(now time.Time) {
	for id, lim := range c.users {
		if lim.TokensAt(now) >= float64(c.burst) {
			delete(c.users, id)
		}
	}
}

// Middleware returns the cooldown as a command middleware. All commands share
// the same per-user buckets.
func (c *Cooldown) Middleware() cmd.Middleware {
	return func(next cmd.Command) cmd.Command {
		return wrapBot(next, func(ctx context.Context, bc *bot.Context, inv *cmd.Invocation) error {
			if !c.Allow(bc.UserID()) {
				logger := bc.Logger()
				logger.Debug().Str("command", next.Name()).Msg("cooldown, command dropped")
				return nil
			}
			return next.Run(ctx, inv)
		})
	}
}
