package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"server/internal/chat"
	"server/internal/domain"
	"server/internal/gate"
	"server/internal/infra"
	"server/internal/ledger"
	"server/internal/middleware"
	"server/internal/pricing"
	"server/internal/reading"
	"server/pkg/clock"
)

// App carries every collaborator the HTTP layer needs. Handlers hang off
// it as methods.
type App struct {
	Logger   zerolog.Logger
	SQL      infra.SQLExecutor
	Ledgers  *ledger.Selector
	Gate     *gate.Gate
	Quota    *ledger.QuotaCache
	Readings *reading.Store
	Chat     *chat.Manager
	Pricing  *pricing.Service
	Clock    clock.Clock
	Loc      *time.Location
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, msg string) {
	a.json(w, code, map[string]any{"error": errCode, "message": msg})
}

// domainError maps ledger and session sentinels onto the API's error
// vocabulary. Anything unrecognized is a 500.
func (a *App) domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance):
		a.error(w, http.StatusPaymentRequired, "insufficient_balance", "not enough credits, top up to continue")
	case errors.Is(err, domain.ErrInsufficientGrant):
		a.error(w, http.StatusForbidden, "daily_grant_used", "free draw already used today, come back tomorrow")
	case errors.Is(err, domain.ErrServiceUnavailable):
		a.error(w, http.StatusServiceUnavailable, "service_unavailable", "temporary failure, any charge was refunded")
	case errors.Is(err, domain.ErrSessionExhausted):
		a.error(w, http.StatusConflict, "session_exhausted", "session message limit reached")
	case errors.Is(err, domain.ErrActionInFlight):
		a.error(w, http.StatusTooManyRequests, "action_in_flight", "previous request still processing")
	case errors.Is(err, domain.ErrValidation):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	default:
		a.Logger.Error().Err(err).Msg("unhandled handler error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) account(r *http.Request) (domain.Account, bool) {
	return middleware.AccountFromContext(r.Context())
}

// withAccount wraps a handler with account resolution; a missing account
// means the identity middleware was bypassed.
func (a *App) withAccount(h func(w http.ResponseWriter, r *http.Request, acct domain.Account)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, ok := a.account(r)
		if !ok {
			a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		h(w, r, acct)
	}
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}
