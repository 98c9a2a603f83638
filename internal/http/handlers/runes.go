package handlers

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"server/internal/domain"
	"server/internal/reading"
)

type runeDrawRequest struct {
	Mode string `json:"mode"`
}

var runeDrawSizes = map[string]int{
	"single": 1,
	"three":  3,
	"five":   5,
}

// RunesDraw charges for the cast and returns the drawn stones with their
// orientations. Rune casts have no multi-step flow; the draw is the whole
// reading.
func (a *App) RunesDraw(w http.ResponseWriter, r *http.Request) {
	a.withAccount(func(w http.ResponseWriter, r *http.Request, acct domain.Account) {
		var req runeDrawRequest
		if !a.decode(w, r, &req) {
			return
		}
		n, ok := runeDrawSizes[req.Mode]
		if !ok {
			a.error(w, http.StatusBadRequest, "bad_request", "mode must be single, three or five")
			return
		}
		action, err := reading.RuneActionFor(n)
		if err != nil {
			a.domainError(w, err)
			return
		}

		var drawn []reading.DrawnRune
		led := a.Ledgers.ForAccount(acct)
		charge, err := a.Gate.Execute(r.Context(), acct, led, action, func(ctx context.Context) error {
			rng := rand.New(rand.NewSource(time.Now().UnixNano()))
			out, err := reading.DrawRunes(n, rng)
			if err != nil {
				return err
			}
			drawn = out
			return nil
		})
		if err != nil {
			a.domainError(w, err)
			return
		}
		a.json(w, http.StatusCreated, map[string]any{
			"runes":  drawn,
			"charge": chargeResponse(charge),
		})
	})(w, r)
}
