// Package ledger owns credit balances and the once-per-day free grant.
// Two implementations exist: LocalStore for guests (embedded sqlite) and
// RemoteStore for authenticated accounts (Postgres). Consumers pick one
// variant per account mode and never branch on mode afterwards.
package ledger

import (
	"context"
	"time"
)

// Reason classifies a refused deduction.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonInsufficientBalance Reason = "insufficient_balance"
	ReasonInsufficientGrant   Reason = "daily_grant_used"
)

// Result is the outcome of a Deduct attempt. Balance is the post-deduct
// balance when OK, or the untouched balance on refusal.
type Result struct {
	OK      bool
	Reason  Reason
	Balance int
}

// CheckinResult reports a daily check-in claim. OK is false when today's
// check-in was already claimed.
type CheckinResult struct {
	OK      bool
	Streak  int
	Reward  int
	Balance int
}

// Ledger is the authoritative source of one account's balance and daily
// grant state. Balance never goes negative; the grant is consumed at most
// once per local calendar day.
type Ledger interface {
	Balance(ctx context.Context) (int, error)
	// AddCredits is additive; used for purchases and compensating refunds.
	AddCredits(ctx context.Context, amount int) (int, error)
	// Deduct atomically subtracts cost from the balance. When
	// requiresDailyGrant is set the grant must still be available today and
	// its consumption is recorded in the same step; a grant already used
	// today refuses with ReasonInsufficientGrant before the balance check.
	Deduct(ctx context.Context, cost int, requiresDailyGrant bool) (Result, error)
	// RestoreDailyGrant un-marks today's grant consumption so a transient
	// action failure does not cost the user their free entitlement.
	RestoreDailyGrant(ctx context.Context) error
	// ClaimDailyGrant is the separate login check-in reward with streak
	// tracking. It is independent of the per-action free grant.
	ClaimDailyGrant(ctx context.Context) (CheckinResult, error)
	DailyGrantAvailable(ctx context.Context) (bool, error)
}

// sameLocalDay reports whether a and b fall on the same calendar day in loc.
func sameLocalDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
