package handlers

import (
	"net/http"

	"server/internal/domain"
	"server/internal/ledger"
)

type topupRequest struct {
	Amount int `json:"amount"`
}

// CreditsTopup adds purchased credits to the caller's balance. Payment
// verification happens upstream; this endpoint is the fulfilment step.
func (a *App) CreditsTopup(w http.ResponseWriter, r *http.Request) {
	a.withAccount(func(w http.ResponseWriter, r *http.Request, acct domain.Account) {
		var req topupRequest
		if !a.decode(w, r, &req) {
			return
		}
		if req.Amount <= 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "amount must be positive")
			return
		}
		balance, err := a.Ledgers.ForAccount(acct).AddCredits(r.Context(), req.Amount)
		if err != nil {
			a.domainError(w, err)
			return
		}
		a.Logger.Info().Str("account_id", acct.ID).Int("amount", req.Amount).Msg("credits topped up")
		a.json(w, http.StatusOK, map[string]any{"balance": balance})
	})(w, r)
}

// Checkin claims the daily streak reward.
func (a *App) Checkin(w http.ResponseWriter, r *http.Request) {
	a.withAccount(func(w http.ResponseWriter, r *http.Request, acct domain.Account) {
		res, err := a.Ledgers.ForAccount(acct).ClaimDailyGrant(r.Context())
		if err != nil {
			a.domainError(w, err)
			return
		}
		a.json(w, http.StatusOK, checkinResponse(res))
	})(w, r)
}

func checkinResponse(res ledger.CheckinResult) map[string]any {
	return map[string]any{
		"claimed": res.OK,
		"streak":  res.Streak,
		"reward":  res.Reward,
		"balance": res.Balance,
	}
}
