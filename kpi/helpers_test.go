package kpi_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/graph-kpi-dashboard/directory"
	"github.com/jrsteele09/graph-kpi-dashboard/kpi"
	"github.com/jrsteele09/graph-kpi-dashboard/sessions"
)

var fixedNow = time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC)

func useFixedNow(t *testing.T) {
	t.Helper()
	kpi.NowTimeFunc = func() time.Time { return fixedNow }
	t.Cleanup(func() { kpi.NowTimeFunc = time.Now })
}

// fakeGateway serves canned directory data and counts concurrent mailbox calls.
type fakeGateway struct {
	directory.Gateway

	events        []directory.Event
	calendarErr   error
	calendarDelay time.Duration

	sentMail    map[string]int
	sentMailErr map[string]error
	mailDelay   time.Duration

	users    []directory.User
	usersErr error
	count    int
	countErr error
	signIn   directory.SignIn
	auditErr error

	inFlight    atomic.Int32
	maxInFlight atomic.Int32

	mu          sync.Mutex
	mailboxSeen []string
}

func (g *fakeGateway) CalendarEvents(ctx context.Context, _ string) ([]directory.Event, error) {
	if err := wait(ctx, g.calendarDelay); err != nil {
		return nil, err
	}
	return g.events, g.calendarErr
}

func (g *fakeGateway) SentMailCount(ctx context.Context, _ string, userID string) (int, error) {
	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		peak := g.maxInFlight.Load()
		if n <= peak || g.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	g.mu.Lock()
	g.mailboxSeen = append(g.mailboxSeen, userID)
	g.mu.Unlock()

	if err := wait(ctx, g.mailDelay); err != nil {
		return 0, err
	}
	if err := g.sentMailErr[userID]; err != nil {
		return 0, err
	}
	return g.sentMail[userID], nil
}

func (g *fakeGateway) ListUsers(_ context.Context, _ string) ([]directory.User, error) {
	return g.users, g.usersErr
}

func (g *fakeGateway) CountUsers(_ context.Context, _ string) (int, error) {
	return g.count, g.countErr
}

func (g *fakeGateway) LatestSignIn(_ context.Context, _ string) (directory.SignIn, error) {
	return g.signIn, g.auditErr
}

// wait sleeps for d unless ctx is cancelled first, like a real upstream call would.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

type countingRecorder struct {
	mu           sync.Mutex
	kinds        []string
	errs         []error
	fallbackHits int
}

func (r *countingRecorder) ObserveAggregation(kind string, err error, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
	r.errs = append(r.errs, err)
}

func (r *countingRecorder) MailboxFallback() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbackHits++
}

func userSession() *sessions.Session {
	s := &sessions.Session{ID: "user-session", BearerToken: "user-token"}
	s.Decoded.SubjectID = "oid-1"
	return s
}

func appSession() *sessions.Session {
	return &sessions.Session{ID: "client-id", BearerToken: "app-token"}
}

func users(n int) []directory.User {
	out := make([]directory.User, n)
	for i := range out {
		out[i] = directory.User{ID: fmt.Sprintf("u%d", i), DisplayName: fmt.Sprintf("User %d", i)}
	}
	return out
}

func meeting(start time.Time, minutes int) directory.Event {
	return directory.Event{Start: start, End: start.Add(time.Duration(minutes) * time.Minute)}
}
