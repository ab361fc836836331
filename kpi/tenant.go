package kpi

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/graph-kpi-dashboard/directory"
	"github.com/jrsteele09/graph-kpi-dashboard/internal/errors"
	"github.com/jrsteele09/graph-kpi-dashboard/sessions"
	"golang.org/x/sync/errgroup"
)

type TenantMetrics struct {
	UserCount             int
	TotalMailsSent        int
	TopSenderName         string
	LastSignInDescription string
}

// TenantFromDirectory lists the tenant's users with the application session and aggregates over them.
func (a *Aggregator) TenantFromDirectory(ctx context.Context, appSession *sessions.Session) (TenantMetrics, error) {
	if appSession == nil {
		return TenantMetrics{}, fmt.Errorf("[kpi TenantFromDirectory] no session")
	}

	users, err := a.gateway.ListUsers(ctx, appSession.BearerToken)
	if err != nil {
		return TenantMetrics{}, errors.Wrapf(err, "[kpi TenantFromDirectory] list users")
	}
	return a.Tenant(ctx, appSession, users)
}

// Tenant counts users, reads the latest sign-in and sums every user's sent mails, all concurrently.
// At most fanoutLimit mailbox requests are in flight. Count and sign-in failures are fatal.
func (a *Aggregator) Tenant(ctx context.Context, appSession *sessions.Session, users []directory.User) (metrics TenantMetrics, err error) {
	start := time.Now()
	defer func() { a.observe(KindTenant, start, err) }()

	if appSession == nil {
		return TenantMetrics{}, fmt.Errorf("[kpi Tenant] no session")
	}
	token := appSession.BearerToken

	var (
		userCount int
		signIn    directory.SignIn
		counts    = make([]int, len(users))
	)

	// no sibling cancellation: every issued request runs to completion or failure
	var g errgroup.Group
	g.Go(func() error {
		var err error
		if userCount, err = a.gateway.CountUsers(ctx, token); err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if signIn, err = a.gateway.LatestSignIn(ctx, token); err != nil {
			return fmt.Errorf("latest sign-in: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var mailboxes errgroup.Group
		mailboxes.SetLimit(a.fanoutLimit)
		for i, user := range users {
			mailboxes.Go(func() error {
				counts[i] = a.sentMailCount(ctx, token, user.ID)
				return nil
			})
		}
		return mailboxes.Wait()
	})
	if err := g.Wait(); err != nil {
		return TenantMetrics{}, fmt.Errorf("[kpi Tenant] %w", err)
	}

	metrics = TenantMetrics{
		UserCount:             userCount,
		LastSignInDescription: DescribeSignIn(signIn, a.location),
	}

	best := -1
	for i, count := range counts {
		metrics.TotalMailsSent += count
		// strictly greater keeps the first user on ties
		if best < 0 || count > counts[best] {
			best = i
		}
	}
	if best >= 0 {
		metrics.TopSenderName = users[best].DisplayName
	}

	return metrics, nil
}

// DescribeSignIn renders "name: D.M.YYYY H:MM" in loc. An empty audit feed renders as "".
func DescribeSignIn(signIn directory.SignIn, loc *time.Location) string {
	if signIn.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	t := signIn.CreatedAt.In(loc)
	return fmt.Sprintf("%s: %d.%d.%d %d:%02d", signIn.UserDisplayName, t.Day(), int(t.Month()), t.Year(), t.Hour(), t.Minute())
}
