package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"server/internal/chat"
	"server/internal/domain"
	"server/internal/providers/fortune"
)

type startChatRequest struct {
	Name     string `json:"name"`
	Birthday string `json:"birthday"`
	Topic    string `json:"topic"`
	Question string `json:"question"`
	Teller   string `json:"teller"`
}

type sendTurnRequest struct {
	Text string `json:"text"`
}

// ChatStart charges for a session and opens it with the teller's first
// reply.
func (a *App) ChatStart(w http.ResponseWriter, r *http.Request) {
	a.withAccount(func(w http.ResponseWriter, r *http.Request, acct domain.Account) {
		var req startChatRequest
		if !a.decode(w, r, &req) {
			return
		}
		profile := fortune.Profile{
			Name:     req.Name,
			Birthday: req.Birthday,
			Topic:    req.Topic,
			Question: req.Question,
			Teller:   fortune.TellerGender(req.Teller),
		}
		session, charge, err := a.Chat.StartSession(r.Context(), acct, a.Ledgers.ForAccount(acct), profile)
		if err != nil {
			a.domainError(w, err)
			return
		}
		a.json(w, http.StatusCreated, map[string]any{
			"session": sessionResponse(session, a.Chat.MaxTurns()),
			"charge":  chargeResponse(charge),
		})
	})(w, r)
}

// ChatSendTurn appends one user turn and returns the updated transcript.
func (a *App) ChatSendTurn(w http.ResponseWriter, r *http.Request) {
	a.withAccount(func(w http.ResponseWriter, r *http.Request, acct domain.Account) {
		var req sendTurnRequest
		if !a.decode(w, r, &req) {
			return
		}
		session, err := a.Chat.SendTurn(r.Context(), acct, chi.URLParam(r, "id"), req.Text)
		if err != nil {
			a.domainError(w, err)
			return
		}
		a.json(w, http.StatusOK, map[string]any{"session": sessionResponse(session, a.Chat.MaxTurns())})
	})(w, r)
}

// ChatActive returns today's resumable session, if any.
func (a *App) ChatActive(w http.ResponseWriter, r *http.Request) {
	a.withAccount(func(w http.ResponseWriter, r *http.Request, acct domain.Account) {
		session, err := a.Chat.ResumeLookup(r.Context(), acct)
		if err != nil {
			a.domainError(w, err)
			return
		}
		a.json(w, http.StatusOK, map[string]any{"session": sessionResponse(session, a.Chat.MaxTurns())})
	})(w, r)
}

// ChatList returns recent sessions, newest first.
func (a *App) ChatList(w http.ResponseWriter, r *http.Request) {
	a.withAccount(func(w http.ResponseWriter, r *http.Request, acct domain.Account) {
		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 || n > 100 {
				a.error(w, http.StatusBadRequest, "bad_request", "limit must be 1-100")
				return
			}
			limit = n
		}
		sessions, err := a.Chat.ListRecent(r.Context(), acct, limit)
		if err != nil {
			a.domainError(w, err)
			return
		}
		items := make([]map[string]any, 0, len(sessions))
		for i := range sessions {
			items = append(items, sessionResponse(&sessions[i], a.Chat.MaxTurns()))
		}
		a.json(w, http.StatusOK, map[string]any{"items": items})
	})(w, r)
}

// ChatGet returns one session with its full transcript.
func (a *App) ChatGet(w http.ResponseWriter, r *http.Request) {
	a.withAccount(func(w http.ResponseWriter, r *http.Request, acct domain.Account) {
		session, err := a.Chat.Get(r.Context(), acct, chi.URLParam(r, "id"))
		if err != nil {
			a.domainError(w, err)
			return
		}
		a.json(w, http.StatusOK, map[string]any{"session": sessionResponse(session, a.Chat.MaxTurns())})
	})(w, r)
}

// ChatReveal streams the latest teller reply as server-sent events, paced
// by reply length. Closing the connection stops the stream; the
// transcript is unaffected.
func (a *App) ChatReveal(w http.ResponseWriter, r *http.Request) {
	a.withAccount(func(w http.ResponseWriter, r *http.Request, acct domain.Account) {
		session, err := a.Chat.Get(r.Context(), acct, chi.URLParam(r, "id"))
		if err != nil {
			a.domainError(w, err)
			return
		}
		text := lastReply(session)
		if text == "" {
			a.error(w, http.StatusNotFound, "not_found", "no reply to reveal")
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			a.error(w, http.StatusInternalServerError, "internal", "streaming unsupported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		err = chat.Reveal(r.Context(), a.Clock, text, func(chunk string) error {
			if _, err := fmt.Fprintf(w, "data: %s\n\n", chunk); err != nil {
				return err
			}
			flusher.Flush()
			return nil
		})
		if err != nil {
			// Client gone or stream cancelled mid-reveal.
			return
		}
		fmt.Fprint(w, "event: done\ndata: \n\n")
		flusher.Flush()
	})(w, r)
}

func lastReply(session *domain.ChatSession) string {
	for i := len(session.Messages) - 1; i >= 0; i-- {
		m := session.Messages[i]
		if m.Role == domain.RoleModel && !m.Error {
			return m.Text
		}
	}
	return ""
}

func sessionResponse(s *domain.ChatSession, maxTurns int) map[string]any {
	return map[string]any{
		"id":             s.ID,
		"messages":       s.Messages,
		"messages_used":  s.MessagesUsed,
		"messages_limit": maxTurns,
		"premium":        s.IsPremiumSession,
		"credit_cost":    s.CreditCost,
		"created_at":     s.CreatedAt,
		"updated_at":     s.UpdatedAt,
	}
}
