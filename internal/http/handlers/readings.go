package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
	"server/internal/gate"
	"server/internal/reading"
)

type startReadingRequest struct {
	Topic string `json:"topic"`
	Quick bool   `json:"quick"`
}

type cutRequest struct {
	Pivot int `json:"pivot"`
}

type pickRequest struct {
	CardID int `json:"card_id"`
}

// ReadingsStart charges for the topic and opens a reading session. With
// quick set the cards are drawn and revealed in one step.
func (a *App) ReadingsStart(w http.ResponseWriter, r *http.Request) {
	a.withAccount(func(w http.ResponseWriter, r *http.Request, acct domain.Account) {
		var req startReadingRequest
		if !a.decode(w, r, &req) {
			return
		}
		topic := reading.Topic(req.Topic)
		if _, ok := reading.SpreadForTopic(topic); !ok {
			a.error(w, http.StatusBadRequest, "bad_request", "unknown topic")
			return
		}

		var ctrl *reading.Controller
		led := a.Ledgers.ForAccount(acct)
		charge, err := a.Gate.Execute(r.Context(), acct, led, topic.Action(), func(ctx context.Context) error {
			c, err := a.Readings.Begin(acct.ID, topic)
			if err != nil {
				return err
			}
			if req.Quick {
				if err := c.QuickDraw(); err != nil {
					return err
				}
			} else if err := c.StartReading(); err != nil {
				return err
			}
			ctrl = c
			return nil
		})
		if err != nil {
			a.domainError(w, err)
			return
		}
		a.json(w, http.StatusCreated, map[string]any{
			"reading": ctrl.Snapshot(),
			"charge":  chargeResponse(charge),
		})
	})(w, r)
}

// ReadingsGet returns the observable session state for rendering.
func (a *App) ReadingsGet(w http.ResponseWriter, r *http.Request) {
	a.withReading(w, r, func(w http.ResponseWriter, r *http.Request, ctrl *reading.Controller) {
		a.json(w, http.StatusOK, map[string]any{"reading": ctrl.Snapshot()})
	})
}

func (a *App) ReadingsShuffle(w http.ResponseWriter, r *http.Request) {
	a.withReading(w, r, func(w http.ResponseWriter, r *http.Request, ctrl *reading.Controller) {
		if err := ctrl.ManualShuffle(); err != nil {
			a.domainError(w, err)
			return
		}
		a.json(w, http.StatusOK, map[string]any{"reading": ctrl.Snapshot()})
	})
}

func (a *App) ReadingsCut(w http.ResponseWriter, r *http.Request) {
	a.withReading(w, r, func(w http.ResponseWriter, r *http.Request, ctrl *reading.Controller) {
		var req cutRequest
		if r.ContentLength > 0 && !a.decode(w, r, &req) {
			return
		}
		if err := ctrl.ManualCut(req.Pivot); err != nil {
			a.domainError(w, err)
			return
		}
		a.json(w, http.StatusOK, map[string]any{"reading": ctrl.Snapshot()})
	})
}

func (a *App) ReadingsPick(w http.ResponseWriter, r *http.Request) {
	a.withReading(w, r, func(w http.ResponseWriter, r *http.Request, ctrl *reading.Controller) {
		var req pickRequest
		if !a.decode(w, r, &req) {
			return
		}
		if err := ctrl.Pick(req.CardID); err != nil {
			a.domainError(w, err)
			return
		}
		a.json(w, http.StatusOK, map[string]any{"reading": ctrl.Snapshot()})
	})
}

func (a *App) ReadingsConfirm(w http.ResponseWriter, r *http.Request) {
	a.withReading(w, r, func(w http.ResponseWriter, r *http.Request, ctrl *reading.Controller) {
		if err := ctrl.Confirm(); err != nil {
			a.domainError(w, err)
			return
		}
		a.json(w, http.StatusOK, map[string]any{"reading": ctrl.Snapshot()})
	})
}

// ReadingsReset discards the session. The debit already made for it is
// never reversed here.
func (a *App) ReadingsReset(w http.ResponseWriter, r *http.Request) {
	a.withAccount(func(w http.ResponseWriter, r *http.Request, acct domain.Account) {
		if _, err := a.readingForRequest(r, acct); err != nil {
			a.domainError(w, err)
			return
		}
		a.Readings.Drop(acct.ID)
		a.json(w, http.StatusOK, map[string]any{"reset": true})
	})(w, r)
}

func (a *App) withReading(w http.ResponseWriter, r *http.Request, h func(w http.ResponseWriter, r *http.Request, ctrl *reading.Controller)) {
	a.withAccount(func(w http.ResponseWriter, r *http.Request, acct domain.Account) {
		ctrl, err := a.readingForRequest(r, acct)
		if err != nil {
			a.domainError(w, err)
			return
		}
		h(w, r, ctrl)
	})(w, r)
}

// readingForRequest resolves the account's live session and checks it
// against the path id, so stale links cannot act on a newer session.
func (a *App) readingForRequest(r *http.Request, acct domain.Account) (*reading.Controller, error) {
	ctrl, err := a.Readings.Get(acct.ID)
	if err != nil {
		return nil, err
	}
	if ctrl.Snapshot().ID != chi.URLParam(r, "id") {
		return nil, domain.ErrNotFound
	}
	return ctrl, nil
}

func chargeResponse(c gate.Charge) map[string]any {
	return map[string]any{
		"action":            c.Action,
		"amount":            c.Amount,
		"used_daily_grant":  c.UsedDailyGrant,
		"used_premium_free": c.UsedPremiumFree,
		"balance":           c.Balance,
	}
}
