// Package gate wraps every priced action in reserve → invoke →
// commit/refund against the entitlement ledger.
package gate

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/ledger"
	"server/internal/pricing"
)

// Charge records what Execute actually took from the account, so callers
// can render receipts and tests can assert compensation behavior.
type Charge struct {
	Action          domain.ActionType
	Amount          int
	UsedDailyGrant  bool
	UsedPremiumFree bool
	Balance         int
}

// Gate computes effective charges and guards the debit/refund protocol.
type Gate struct {
	pricing *pricing.Service
	quota   *ledger.QuotaCache
	logger  zerolog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

func New(pricingSvc *pricing.Service, quota *ledger.QuotaCache, logger zerolog.Logger) *Gate {
	return &Gate{
		pricing:  pricingSvc,
		quota:    quota,
		logger:   logger,
		inflight: make(map[string]struct{}),
	}
}

// Execute charges the account for action and then runs perform. perform is
// never invoked when the debit is refused. When perform fails the debit is
// reversed: credits are returned and a consumed daily grant or premium
// free use is un-marked, then the original failure is surfaced regardless
// of the compensation outcome.
//
// Only one gated action per account may be in flight; concurrent
// duplicates are refused with ErrActionInFlight.
func (g *Gate) Execute(ctx context.Context, acct domain.Account, led ledger.Ledger, action domain.ActionType, perform func(ctx context.Context) error) (Charge, error) {
	if !g.acquire(acct.ID) {
		return Charge{}, domain.ErrActionInFlight
	}
	defer g.release(acct.ID)

	charge, err := g.reserve(ctx, acct, led, action)
	if err != nil {
		return charge, err
	}

	if err := perform(ctx); err != nil {
		g.compensate(ctx, acct, led, charge)
		return charge, err
	}
	return charge, nil
}

// reserve computes the effective charge and performs the debit.
func (g *Gate) reserve(ctx context.Context, acct domain.Account, led ledger.Ledger, action domain.ActionType) (Charge, error) {
	charge := Charge{Action: action}
	cost, rule := g.pricing.EffectiveCost(ctx, action, acct.Premium)

	// Free paths are re-evaluated immediately before every gated action so a
	// day boundary crossed while the app stayed open is never missed.
	switch {
	case rule.DailyFreeEligible && g.grantAvailable(ctx, led):
		charge.UsedDailyGrant = true
		cost = 0
	case rule.PremiumFreePerDay > 0 && acct.Premium && g.premiumFreeRemaining(ctx, acct, rule):
		charge.UsedPremiumFree = true
		cost = 0
	}
	charge.Amount = cost

	if cost == 0 && !charge.UsedDailyGrant {
		if charge.UsedPremiumFree {
			g.quota.MarkUsed(acct.ID)
		}
		return charge, nil
	}

	res, err := led.Deduct(ctx, cost, charge.UsedDailyGrant)
	if err != nil {
		return charge, fmt.Errorf("%w: deduct failed: %v", domain.ErrServiceUnavailable, err)
	}
	if !res.OK {
		charge.Balance = res.Balance
		switch res.Reason {
		case ledger.ReasonInsufficientGrant:
			return charge, domain.ErrInsufficientGrant
		default:
			return charge, domain.ErrInsufficientBalance
		}
	}
	charge.Balance = res.Balance
	return charge, nil
}

func (g *Gate) compensate(ctx context.Context, acct domain.Account, led ledger.Ledger, charge Charge) {
	if charge.UsedPremiumFree {
		g.quota.Unmark(acct.ID)
	}
	if charge.Amount > 0 {
		if _, err := led.AddCredits(ctx, charge.Amount); err != nil {
			// Reconciliation risk: the user paid for an action that failed and
			// the refund did not land. Never escalated to the caller.
			g.logger.Error().
				Err(err).
				Str("account_id", acct.ID).
				Str("action", string(charge.Action)).
				Int("amount", charge.Amount).
				Msg("compensating refund failed")
		}
	}
	if charge.UsedDailyGrant {
		if err := led.RestoreDailyGrant(ctx); err != nil {
			g.logger.Error().
				Err(err).
				Str("account_id", acct.ID).
				Str("action", string(charge.Action)).
				Msg("daily grant restore failed")
		}
	}
}

func (g *Gate) grantAvailable(ctx context.Context, led ledger.Ledger) bool {
	avail, err := led.DailyGrantAvailable(ctx)
	if err != nil {
		g.logger.Warn().Err(err).Msg("daily grant check failed, assuming unavailable")
		return false
	}
	return avail
}

func (g *Gate) premiumFreeRemaining(ctx context.Context, acct domain.Account, rule domain.PricingRule) bool {
	if g.quota == nil {
		return false
	}
	// Authoritative recount before a gated action: the server value wins
	// over any optimistic local increments.
	if err := g.quota.Refresh(ctx, acct.ID); err != nil {
		g.logger.Warn().Err(err).Msg("premium quota refresh failed, charging paid rate")
		return false
	}
	used, err := g.quota.UsedToday(ctx, acct.ID)
	if err != nil {
		return false
	}
	return used < rule.PremiumFreePerDay
}

func (g *Gate) acquire(accountID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[accountID]; busy {
		return false
	}
	g.inflight[accountID] = struct{}{}
	return true
}

func (g *Gate) release(accountID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, accountID)
}
