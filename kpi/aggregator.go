// Package kpi turns directory facts into the dashboard's per-user and tenant metrics.
package kpi

import (
	"context"
	"time"

	"github.com/jrsteele09/graph-kpi-dashboard/directory"
	"github.com/rs/zerolog/log"
)

// DefaultFanoutLimit bounds concurrent mailbox requests during tenant aggregation
const DefaultFanoutLimit = 8

// Aggregation kinds reported to the Recorder
const (
	KindPerUser = "per_user"
	KindTenant  = "tenant"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Recorder observes aggregations. The server's Prometheus metrics implement it.
type Recorder interface {
	ObserveAggregation(kind string, err error, duration time.Duration)
	MailboxFallback()
}

type nopRecorder struct{}

func (nopRecorder) ObserveAggregation(string, error, time.Duration) {}
func (nopRecorder) MailboxFallback()                                {}

// Option configures the Aggregator.
type Option func(*Aggregator)

// WithFanoutLimit sets the maximum number of in-flight mailbox requests for a tenant.
func WithFanoutLimit(limit int) Option {
	return func(a *Aggregator) {
		if limit > 0 {
			a.fanoutLimit = limit
		}
	}
}

// WithLocation sets the time zone used for month boundaries and sign-in descriptions.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		if loc != nil {
			a.location = loc
		}
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(a *Aggregator) {
		if recorder != nil {
			a.recorder = recorder
		}
	}
}

// Aggregator is stateless between calls; every aggregation fetches fresh data.
type Aggregator struct {
	gateway     directory.Gateway
	fanoutLimit int
	location    *time.Location
	recorder    Recorder
}

func NewAggregator(gateway directory.Gateway, opts ...Option) *Aggregator {
	a := &Aggregator{
		gateway:     gateway,
		fanoutLimit: DefaultFanoutLimit,
		location:    time.Local,
		recorder:    nopRecorder{},
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// sentMailCount degrades any mailbox failure to 0.
func (a *Aggregator) sentMailCount(ctx context.Context, bearerToken, userID string) int {
	count, err := a.gateway.SentMailCount(ctx, bearerToken, userID)
	if err != nil {
		a.recorder.MailboxFallback()
		log.Warn().Err(err).Str("user_id", userID).Msg("sent mail count unavailable, counting 0")
		return 0
	}
	return count
}

func (a *Aggregator) observe(kind string, start time.Time, err error) {
	a.recorder.ObserveAggregation(kind, err, time.Since(start))
}
