package gate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/ledger"
	"server/internal/pricing"
	"server/pkg/clock"
)

// memLedger is an in-process Ledger for gate tests.
type memLedger struct {
	mu        sync.Mutex
	balance   int
	grantUsed bool
	deductErr error
	refundErr error
}

func (m *memLedger) Balance(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance, nil
}

func (m *memLedger) AddCredits(ctx context.Context, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.refundErr != nil {
		return m.balance, m.refundErr
	}
	m.balance += amount
	return m.balance, nil
}

func (m *memLedger) Deduct(ctx context.Context, cost int, requiresDailyGrant bool) (ledger.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deductErr != nil {
		return ledger.Result{}, m.deductErr
	}
	if requiresDailyGrant && m.grantUsed {
		return ledger.Result{OK: false, Reason: ledger.ReasonInsufficientGrant, Balance: m.balance}, nil
	}
	if m.balance < cost {
		return ledger.Result{OK: false, Reason: ledger.ReasonInsufficientBalance, Balance: m.balance}, nil
	}
	m.balance -= cost
	if requiresDailyGrant {
		m.grantUsed = true
	}
	return ledger.Result{OK: true, Balance: m.balance}, nil
}

func (m *memLedger) RestoreDailyGrant(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grantUsed = false
	return nil
}

func (m *memLedger) ClaimDailyGrant(ctx context.Context) (ledger.CheckinResult, error) {
	return ledger.CheckinResult{}, nil
}

func (m *memLedger) DailyGrantAvailable(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.grantUsed, nil
}

func newGate(t *testing.T, premiumUsed int) (*Gate, *ledger.QuotaCache) {
	t.Helper()
	clk := clock.NewFake(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	quota := ledger.NewQuotaCache(func(ctx context.Context, accountID string) (int, error) {
		return premiumUsed, nil
	}, time.Minute, time.UTC, clk)
	svc := pricing.NewService(nil, clk, zerolog.Nop())
	return New(svc, quota, zerolog.Nop()), quota
}

func guest() domain.Account {
	return domain.Account{ID: "guest-1", Mode: domain.AccountModeGuest}
}

func premium() domain.Account {
	return domain.Account{ID: "acct-1", Mode: domain.AccountModeAuthenticated, Premium: true}
}

func TestExecuteChargesListedCost(t *testing.T) {
	g, _ := newGate(t, 0)
	led := &memLedger{balance: 10, grantUsed: true}

	performed := false
	charge, err := g.Execute(context.Background(), guest(), led, domain.ActionLoveReading, func(ctx context.Context) error {
		performed = true
		return nil
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !performed {
		t.Fatal("perform did not run")
	}
	if charge.Amount != 5 || led.balance != 5 {
		t.Fatalf("charge=%+v balance=%d, want 5 charged", charge, led.balance)
	}
}

func TestExecuteRefusalNeverInvokesPerform(t *testing.T) {
	g, _ := newGate(t, 0)
	led := &memLedger{balance: 1, grantUsed: true}

	performed := false
	_, err := g.Execute(context.Background(), guest(), led, domain.ActionLoveReading, func(ctx context.Context) error {
		performed = true
		return nil
	})
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	if performed {
		t.Fatal("perform ran despite refused debit")
	}
	if led.balance != 1 {
		t.Fatalf("refusal changed balance: %d", led.balance)
	}
}

func TestExecuteRefundsOnActionFailure(t *testing.T) {
	g, _ := newGate(t, 0)
	led := &memLedger{balance: 10, grantUsed: true}
	boom := errors.New("generation blew up")

	_, err := g.Execute(context.Background(), guest(), led, domain.ActionLoveReading, func(ctx context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want original failure", err)
	}
	if led.balance != 10 {
		t.Fatalf("balance after refund = %d, want 10", led.balance)
	}
}

func TestExecuteDailyFreePathConsumesAndRestoresGrant(t *testing.T) {
	g, _ := newGate(t, 0)
	led := &memLedger{balance: 0}

	charge, err := g.Execute(context.Background(), guest(), led, domain.ActionDailyReading, func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !charge.UsedDailyGrant || charge.Amount != 0 {
		t.Fatalf("charge = %+v, want free daily-grant path", charge)
	}
	if !led.grantUsed {
		t.Fatal("grant not consumed")
	}

	// Second free-gated action the same day pays the listed price; with an
	// empty balance it is refused.
	_, err = g.Execute(context.Background(), guest(), led, domain.ActionDailyReading, func(ctx context.Context) error {
		return nil
	})
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance once grant is gone", err)
	}

	// A failed action with a consumed grant gets the grant back.
	led2 := &memLedger{balance: 0}
	boom := errors.New("reading failed")
	_, err = g.Execute(context.Background(), guest(), led2, domain.ActionDailyReading, func(ctx context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want original failure", err)
	}
	if led2.grantUsed {
		t.Fatal("grant was not restored after action failure")
	}
}

func TestExecutePremiumFreeSession(t *testing.T) {
	g, quota := newGate(t, 0)
	led := &memLedger{balance: 20, grantUsed: true}

	charge, err := g.Execute(context.Background(), premium(), led, domain.ActionChatSession, func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !charge.UsedPremiumFree || charge.Amount != 0 {
		t.Fatalf("charge = %+v, want premium free session", charge)
	}
	used, _ := quota.UsedToday(context.Background(), "acct-1")
	if used != 1 {
		t.Fatalf("quota used = %d, want optimistic 1", used)
	}
	if led.balance != 20 {
		t.Fatalf("free session touched balance: %d", led.balance)
	}
}

func TestExecutePremiumRateAfterFreeUsed(t *testing.T) {
	// Scenario E: the one free premium chat was already used today.
	g, _ := newGate(t, 1)
	led := &memLedger{balance: 20, grantUsed: true}

	charge, err := g.Execute(context.Background(), premium(), led, domain.ActionChatSession, func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if charge.UsedPremiumFree {
		t.Fatal("free path applied despite exhausted quota")
	}
	if charge.Amount != 5 {
		t.Fatalf("charge = %d, want premium rate 5", charge.Amount)
	}
	if led.balance != 15 {
		t.Fatalf("balance = %d, want 15", led.balance)
	}
}

func TestExecutePremiumFreeUnmarkedOnFailure(t *testing.T) {
	g, quota := newGate(t, 0)
	led := &memLedger{balance: 20, grantUsed: true}
	boom := errors.New("chat failed")

	_, err := g.Execute(context.Background(), premium(), led, domain.ActionChatSession, func(ctx context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want original failure", err)
	}
	used, _ := quota.UsedToday(context.Background(), "acct-1")
	if used != 0 {
		t.Fatalf("quota used = %d, want optimistic use reverted", used)
	}
}

func TestExecuteRejectsConcurrentDuplicate(t *testing.T) {
	g, _ := newGate(t, 0)
	led := &memLedger{balance: 100, grantUsed: true}

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := g.Execute(context.Background(), guest(), led, domain.ActionLoveReading, func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
		done <- err
	}()

	<-started
	_, err := g.Execute(context.Background(), guest(), led, domain.ActionLoveReading, func(ctx context.Context) error {
		return nil
	})
	if !errors.Is(err, domain.ErrActionInFlight) {
		t.Fatalf("err = %v, want ErrActionInFlight", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first execute: %v", err)
	}
}

func TestExecuteDeductTransportFailure(t *testing.T) {
	g, _ := newGate(t, 0)
	led := &memLedger{balance: 10, grantUsed: true, deductErr: errors.New("connection refused")}

	_, err := g.Execute(context.Background(), guest(), led, domain.ActionLoveReading, func(ctx context.Context) error {
		t.Fatal("perform must not run on transport failure")
		return nil
	})
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Fatalf("err = %v, want ErrServiceUnavailable", err)
	}
}

func TestExecuteSurfacesOriginalErrorWhenRefundFails(t *testing.T) {
	g, _ := newGate(t, 0)
	led := &memLedger{balance: 10, grantUsed: true, refundErr: errors.New("refund rpc down")}
	boom := errors.New("action failed")

	_, err := g.Execute(context.Background(), guest(), led, domain.ActionLoveReading, func(ctx context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the action failure even when compensation fails", err)
	}
}
