package ledger

import (
	"context"
	"time"

	"github.com/mmynk/coven/internal/metrics"
)

// DefaultWriteTimeout bounds every persisted write when no option overrides it.
const DefaultWriteTimeout = 5 * time.Second

type options struct {
	writeTimeout time.Duration
	metrics      *metrics.Metrics
	now          func() time.Time
}

// Option configures an ExpenseLedger, StatusTracker or Roster.
type Option func(*options)

// WithWriteTimeout sets the deadline applied to each store write.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.writeTimeout = d
		}
	}
}

// WithMetrics records expense outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func withClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{
		writeTimeout: DefaultWriteTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.writeTimeout)
}
