package kpi

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/graph-kpi-dashboard/directory"
	"github.com/jrsteele09/graph-kpi-dashboard/sessions"
	"golang.org/x/sync/errgroup"
)

type PerUserMetrics struct {
	MeetingsThisMonth       int
	MeetingMinutesLastMonth float64
	MailsSent               int
}

// PerUser fetches the session subject's calendar and sent mail count concurrently and waits for both.
// A calendar failure fails the aggregation; a mailbox failure counts as 0 sent mails.
func (a *Aggregator) PerUser(ctx context.Context, session *sessions.Session) (metrics PerUserMetrics, err error) {
	start := time.Now()
	defer func() { a.observe(KindPerUser, start, err) }()

	if session == nil {
		return PerUserMetrics{}, fmt.Errorf("[kpi PerUser] no session")
	}

	var (
		events    []directory.Event
		mailsSent int
	)

	// a calendar failure does not cancel the mailbox request; both run to completion
	var g errgroup.Group
	g.Go(func() error {
		var err error
		events, err = a.gateway.CalendarEvents(ctx, session.BearerToken)
		return err
	})
	g.Go(func() error {
		mailsSent = a.sentMailCount(ctx, session.BearerToken, session.Decoded.SubjectID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return PerUserMetrics{}, fmt.Errorf("[kpi PerUser] calendar: %w", err)
	}

	metrics = summariseEvents(events, NowTimeFunc().In(a.location))
	metrics.MailsSent = mailsSent
	return metrics, nil
}

// summariseEvents applies two open-ended floors. The previous-month sum therefore
// also includes events of the current month.
func summariseEvents(events []directory.Event, now time.Time) PerUserMetrics {
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonth := thisMonth.AddDate(0, -1, 0)

	var m PerUserMetrics
	for _, ev := range events {
		if !ev.Start.Before(thisMonth) {
			m.MeetingsThisMonth++
		}
		if !ev.Start.Before(lastMonth) {
			m.MeetingMinutesLastMonth += ev.Duration().Minutes()
		}
	}
	return m
}
