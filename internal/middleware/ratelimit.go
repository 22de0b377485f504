package middleware

import (
	"context"
	"errors"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a caller exceeds its request budget.
var ErrRateLimited = errors.New("too many requests, slow down")

// limiterIdleTTL is how long an unused per-caller limiter is kept.
const limiterIdleTTL = 10 * time.Minute

// RateLimit returns an interceptor that allows each caller rps requests per
// second with the given burst. Callers are keyed by user ID, falling back to
// the peer address. A non-positive rps disables limiting.
//
// Install it inside RequireAuth so the user ID is known.
func RateLimit(rps float64, burst int) connect.UnaryInterceptorFunc {
	if rps <= 0 {
		return func(next connect.UnaryFunc) connect.UnaryFunc { return next }
	}
	if burst < 1 {
		burst = 1
	}

	limiters := cache.New(limiterIdleTTL, limiterIdleTTL)
	var mu sync.Mutex

	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		var l *rate.Limiter
		if v, ok := limiters.Get(key); ok {
			l = v.(*rate.Limiter)
		} else {
			l = rate.NewLimiter(rate.Limit(rps), burst)
		}
		// Refresh the expiry on every use.
		limiters.SetDefault(key, l)
		return l
	}

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			key := GetUserID(ctx)
			if key == "" {
				key = req.Peer().Addr
			}
			if !limiterFor(key).Allow() {
				return nil, connect.NewError(connect.CodeResourceExhausted, ErrRateLimited)
			}
			return next(ctx, req)
		}
	}
}
