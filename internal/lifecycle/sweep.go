package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/budgetbook/backend/internal/identity"
)

// Report summarizes one sweep cycle.
type Report struct {
	Matched   int `json:"matched"`
	Deleted   int `json:"deleted"`
	Refreshed int `json:"refreshed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Sweeper deletes anonymous accounts that have been inactive longer than
// the window. Each cycle is stateless; there is no retry policy beyond
// recurrence. A user whose deletion fails mid-way keeps its settings
// document and is re-matched on the next cycle, and a settings document
// whose identity is already gone is cleaned up as an orphan.
type Sweeper struct {
	svc         *Service
	window      time.Duration
	concurrency int
	log         zerolog.Logger
	now         func() time.Time
}

// NewSweeper creates a sweeper with the given inactivity window and
// deletion fan-out limit.
func NewSweeper(svc *Service, window time.Duration, concurrency int, log zerolog.Logger) *Sweeper {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Sweeper{
		svc:         svc,
		window:      window,
		concurrency: concurrency,
		log:         log,
		now:         time.Now,
	}
}

// Run executes one sweep cycle. It never returns an error: every failure
// path is logged so the schedule keeps firing on its normal cadence.
//
// Records whose last activity is strictly older than now minus the window
// are matched. Each matched owner is classified one at a time: anonymous
// or already-absent identities are marked for deletion; identities with a
// linked provider get their activity timestamp refreshed so they are not
// re-evaluated every cycle; lookup failures are skipped until the next
// cycle. Marked deletions then run concurrently and the cycle waits for
// all of them to settle.
func (s *Sweeper) Run(ctx context.Context) Report {
	var report Report

	cutoff := s.now().Add(-s.window)

	userIDs, err := s.svc.store.ListStaleUserIDs(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Time("cutoff", cutoff).Msg("Stale settings query failed")
		return report
	}

	report.Matched = len(userIDs)
	if len(userIDs) == 0 {
		s.log.Info().Time("cutoff", cutoff).Msg("No stale accounts found")
		return report
	}

	s.log.Info().Int("matched", len(userIDs)).Time("cutoff", cutoff).Msg("Evaluating stale accounts")

	var marked []string
	for _, userID := range userIDs {
		user, err := s.svc.ids.GetUser(ctx, userID)
		switch {
		case errors.Is(err, identity.ErrNotFound):
			// Orphaned settings document; clean it up anyway.
			marked = append(marked, userID)
		case err != nil:
			report.Skipped++
			s.log.Warn().Err(err).Str("user_id", userID).Msg("Identity lookup failed, skipping until next cycle")
		case user.Anonymous:
			marked = append(marked, userID)
		default:
			// Stale but legitimate: refresh so it is not re-evaluated
			// every cycle.
			if err := s.svc.store.TouchActivity(ctx, userID, s.now()); err != nil {
				report.Skipped++
				s.log.Warn().Err(err).Str("user_id", userID).Msg("Activity refresh failed")
			} else {
				report.Refreshed++
			}
		}
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for _, userID := range marked {
		userID := userID
		g.Go(func() error {
			// Failures are logged and swallowed so one user's deletion
			// never aborts the siblings.
			if err := s.svc.deleteStaleUser(ctx, userID); err != nil {
				s.log.Error().Err(err).Str("user_id", userID).Msg("Stale account deletion failed")
				mu.Lock()
				report.Failed++
				mu.Unlock()
				return nil
			}

			s.log.Info().Str("user_id", userID).Msg("Stale account deleted")
			mu.Lock()
			report.Deleted++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	s.log.Info().
		Int("matched", report.Matched).
		Int("deleted", report.Deleted).
		Int("refreshed", report.Refreshed).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("Sweep cycle complete")
	return report
}
