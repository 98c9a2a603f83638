package handlers

import (
	"net/http"

	"server/internal/domain"
)

// Entitlements reports everything the client needs to render gates:
// balance, whether today's free draw is still available, and how many
// premium free sessions remain.
func (a *App) Entitlements(w http.ResponseWriter, r *http.Request) {
	acct, ok := a.account(r)
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	led := a.Ledgers.ForAccount(acct)

	balance, err := led.Balance(r.Context())
	if err != nil {
		a.domainError(w, err)
		return
	}
	grantAvailable, err := led.DailyGrantAvailable(r.Context())
	if err != nil {
		a.Logger.Warn().Err(err).Msg("grant check failed, reporting unavailable")
		grantAvailable = false
	}

	premiumFreeRemaining := 0
	if acct.Premium && a.Quota != nil {
		rule := a.Pricing.Rule(domain.ActionChatSession)
		used, err := a.Quota.UsedToday(r.Context(), acct.ID)
		if err == nil && rule.PremiumFreePerDay > used {
			premiumFreeRemaining = rule.PremiumFreePerDay - used
		}
	}

	a.json(w, http.StatusOK, map[string]any{
		"account_id":             acct.ID,
		"mode":                   acct.Mode,
		"premium":                acct.Premium,
		"balance":                balance,
		"daily_grant_available":  grantAvailable,
		"premium_free_remaining": premiumFreeRemaining,
	})
}
