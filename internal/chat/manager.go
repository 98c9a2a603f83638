// Package chat runs bounded fortune chat sessions: a gated start, a fixed
// budget of user turns, and local recovery when generation fails.
package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/gate"
	"server/internal/ledger"
	"server/internal/providers/fortune"
	"server/pkg/clock"
)

// failureNotice is appended in place of a reply when generation fails. It
// never counts against the turn budget and is excluded from generator
// input.
const failureNotice = "ขออภัย ดวงดาวขัดข้องชั่วคราว กรุณาลองส่งข้อความอีกครั้ง"

// defaultPersona keeps follow-up turns in character; the per-profile
// persona only shapes the opening reply.
const defaultPersona = "คุณคือหมอดูไพ่ทาโรต์ผู้มากประสบการณ์ ตอบเป็นภาษาไทยอย่างอบอุ่นและตรงประเด็น"

// Manager owns chat session lifecycle. Authenticated sessions persist
// through the repository; guest sessions live only in process memory.
type Manager struct {
	gate     *gate.Gate
	repo     domain.ChatSessionRepository
	gen      fortune.Generator
	clock    clock.Clock
	loc      *time.Location
	maxTurns int
	logger   zerolog.Logger

	mu    sync.Mutex
	guest map[string]map[string]*domain.ChatSession
	busy  map[string]struct{}
}

func NewManager(g *gate.Gate, repo domain.ChatSessionRepository, gen fortune.Generator, clk clock.Clock, loc *time.Location, maxTurns int, logger zerolog.Logger) *Manager {
	return &Manager{
		gate:     g,
		repo:     repo,
		gen:      gen,
		clock:    clk,
		loc:      loc,
		maxTurns: maxTurns,
		logger:   logger,
		guest:    make(map[string]map[string]*domain.ChatSession),
		busy:     make(map[string]struct{}),
	}
}

// MaxTurns returns the per-session user turn budget.
func (m *Manager) MaxTurns() int {
	return m.maxTurns
}

// StartSession charges the account and opens a session with the teller's
// first reply. The intake question spends the first turn of the budget.
// A refused charge returns without a session. When the
// charge lands but generation fails, the charge is already refunded by
// the gate and the session opens with a non-counting failure notice so
// the client still has something to render.
func (m *Manager) StartSession(ctx context.Context, acct domain.Account, led ledger.Ledger, profile fortune.Profile) (*domain.ChatSession, gate.Charge, error) {
	if err := validateProfile(profile); err != nil {
		return nil, gate.Charge{}, err
	}

	opening := openingMessage(profile)
	var reply string
	var genErr error
	charge, err := m.gate.Execute(ctx, acct, led, domain.ActionChatSession, func(ctx context.Context) error {
		text, e := m.gen.Generate(ctx, fortune.Request{
			System:  personaPrompt(profile),
			History: []domain.ChatMessage{{Role: domain.RoleUser, Text: opening}},
		})
		if e != nil {
			genErr = e
			return e
		}
		reply = text
		return nil
	})
	if err != nil && genErr == nil {
		return nil, charge, err
	}

	now := m.clock.Now()
	session := &domain.ChatSession{
		ID:               uuid.NewString(),
		AccountID:        acct.ID,
		Messages:         []domain.ChatMessage{{Role: domain.RoleUser, Text: opening}},
		IsPremiumSession: charge.UsedPremiumFree,
		CreditCost:       charge.Amount,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if genErr != nil {
		m.logger.Warn().Err(genErr).Str("account_id", acct.ID).Msg("opening reply generation failed, charge refunded")
		session.Messages = append(session.Messages, domain.ChatMessage{Role: domain.RoleModel, Text: failureNotice, Error: true})
	} else {
		// The intake question is the first of maxTurns user turns.
		session.MessagesUsed = 1
		session.Messages = append(session.Messages, domain.ChatMessage{Role: domain.RoleModel, Text: reply})
	}

	if err := m.store(ctx, acct, session); err != nil {
		return nil, charge, fmt.Errorf("%w: persist session: %v", domain.ErrServiceUnavailable, err)
	}
	return session, charge, nil
}

// SendTurn appends one user turn and the teller's reply. A failed
// generation is recovered locally: the turn budget is given back and a
// visibly-distinct notice is appended instead of a reply.
func (m *Manager) SendTurn(ctx context.Context, acct domain.Account, sessionID, text string) (*domain.ChatSession, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty message", domain.ErrValidation)
	}

	session, err := m.load(ctx, acct, sessionID)
	if err != nil {
		return nil, err
	}
	if session.MessagesUsed >= m.maxTurns {
		return nil, domain.ErrSessionExhausted
	}
	if !m.markBusy(sessionID) {
		return nil, domain.ErrActionInFlight
	}
	defer m.unmarkBusy(sessionID)

	session.Messages = append(session.Messages, domain.ChatMessage{Role: domain.RoleUser, Text: text})
	session.MessagesUsed++

	reply, genErr := m.gen.Generate(ctx, fortune.Request{System: defaultPersona, History: session.History()})
	if genErr != nil {
		session.MessagesUsed--
		session.Messages = append(session.Messages, domain.ChatMessage{Role: domain.RoleModel, Text: failureNotice, Error: true})
		m.logger.Warn().Err(genErr).Str("session_id", sessionID).Msg("turn generation failed, budget restored")
	} else {
		session.Messages = append(session.Messages, domain.ChatMessage{Role: domain.RoleModel, Text: reply})
	}
	session.UpdatedAt = m.clock.Now()

	if err := m.persist(ctx, acct, session); err != nil {
		return nil, fmt.Errorf("%w: persist turn: %v", domain.ErrServiceUnavailable, err)
	}
	return session, nil
}

// Get returns the session with its full transcript.
func (m *Manager) Get(ctx context.Context, acct domain.Account, sessionID string) (*domain.ChatSession, error) {
	return m.load(ctx, acct, sessionID)
}

// ResumeLookup returns the newest session started since local midnight
// that still has turns left, or ErrNotFound. A session left open
// yesterday is never resumed.
func (m *Manager) ResumeLookup(ctx context.Context, acct domain.Account) (*domain.ChatSession, error) {
	since := localMidnight(m.clock.Now(), m.loc)
	if acct.IsGuest() {
		m.mu.Lock()
		defer m.mu.Unlock()
		var best *domain.ChatSession
		for _, s := range m.guest[acct.ID] {
			if s.CreatedAt.Before(since) || s.MessagesUsed >= m.maxTurns {
				continue
			}
			if best == nil || s.CreatedAt.After(best.CreatedAt) {
				best = s
			}
		}
		if best == nil {
			return nil, domain.ErrNotFound
		}
		return cloneSession(best), nil
	}
	return m.repo.FindActive(ctx, acct.ID, m.maxTurns, since)
}

// ListRecent returns up to limit sessions, newest first.
func (m *Manager) ListRecent(ctx context.Context, acct domain.Account, limit int) ([]domain.ChatSession, error) {
	if limit <= 0 {
		limit = 20
	}
	if acct.IsGuest() {
		m.mu.Lock()
		defer m.mu.Unlock()
		out := make([]domain.ChatSession, 0, len(m.guest[acct.ID]))
		for _, s := range m.guest[acct.ID] {
			out = append(out, *cloneSession(s))
		}
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		if len(out) > limit {
			out = out[:limit]
		}
		return out, nil
	}
	return m.repo.ListRecent(ctx, acct.ID, limit)
}

func (m *Manager) load(ctx context.Context, acct domain.Account, sessionID string) (*domain.ChatSession, error) {
	if acct.IsGuest() {
		m.mu.Lock()
		defer m.mu.Unlock()
		s, ok := m.guest[acct.ID][sessionID]
		if !ok {
			return nil, domain.ErrNotFound
		}
		return cloneSession(s), nil
	}
	return m.repo.GetByID(ctx, acct.ID, sessionID)
}

func (m *Manager) store(ctx context.Context, acct domain.Account, session *domain.ChatSession) error {
	if acct.IsGuest() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.guest[acct.ID] == nil {
			m.guest[acct.ID] = make(map[string]*domain.ChatSession)
		}
		m.guest[acct.ID][session.ID] = cloneSession(session)
		return nil
	}
	id, err := m.repo.Create(ctx, session)
	if err != nil {
		return err
	}
	session.ID = id
	return nil
}

func (m *Manager) persist(ctx context.Context, acct domain.Account, session *domain.ChatSession) error {
	if acct.IsGuest() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.guest[acct.ID] == nil {
			return domain.ErrNotFound
		}
		m.guest[acct.ID][session.ID] = cloneSession(session)
		return nil
	}
	return m.repo.UpdateMessages(ctx, session.AccountID, session.ID, session.Messages, session.MessagesUsed)
}

func (m *Manager) markBusy(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.busy[sessionID]; busy {
		return false
	}
	m.busy[sessionID] = struct{}{}
	return true
}

func (m *Manager) unmarkBusy(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.busy, sessionID)
}

func validateProfile(p fortune.Profile) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if strings.TrimSpace(p.Question) == "" {
		return fmt.Errorf("%w: question is required", domain.ErrValidation)
	}
	return nil
}

// openingMessage is the seeker's first turn, assembled from the intake
// form the same way the consultation screen phrases it.
func openingMessage(p fortune.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "สวัสดี%s ฉันชื่อ %s", p.Particle(), strings.TrimSpace(p.Name))
	if bd := strings.TrimSpace(p.Birthday); bd != "" {
		fmt.Fprintf(&b, " เกิดวันที่ %s", bd)
	}
	if topic := strings.TrimSpace(p.Topic); topic != "" {
		fmt.Fprintf(&b, " อยากถามเรื่อง%s", topic)
	}
	fmt.Fprintf(&b, " %s", strings.TrimSpace(p.Question))
	return b.String()
}

func personaPrompt(p fortune.Profile) string {
	return fmt.Sprintf(
		"คุณคือหมอดูไพ่ทาโรต์ผู้มากประสบการณ์ ตอบเป็นภาษาไทย ลงท้ายประโยคด้วย %q เสมอ "+
			"ให้คำทำนายที่อบอุ่น ตรงประเด็น และจบในคำตอบเดียว", p.Particle())
}

func localMidnight(now time.Time, loc *time.Location) time.Time {
	t := now.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func cloneSession(s *domain.ChatSession) *domain.ChatSession {
	cp := *s
	cp.Messages = append([]domain.ChatMessage(nil), s.Messages...)
	return &cp
}
