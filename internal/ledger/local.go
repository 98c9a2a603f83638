package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"server/pkg/clock"
)

const guestSchema = `
create table if not exists guest_wallets (
    guest_id        text primary key,
    credits         integer not null default 0 check (credits >= 0),
    last_free_at    integer,
    last_checkin_at integer,
    streak          integer not null default 0
);
`

// OpenGuestDB opens (and bootstraps) the embedded sqlite database backing
// guest wallets. A single handle is shared by all LocalStore instances.
func OpenGuestDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open guest db: %w", err)
	}
	// sqlite allows one writer; serialize through a single connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(guestSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap guest schema: %w", err)
	}
	return db, nil
}

// LocalStore implements Ledger for one guest account on top of sqlite.
type LocalStore struct {
	db      *sql.DB
	guestID string
	loc     *time.Location
	clock   clock.Clock
}

// NewLocalStore binds a guest wallet. The row is created lazily.
func NewLocalStore(db *sql.DB, guestID string, loc *time.Location, clk clock.Clock) *LocalStore {
	return &LocalStore{db: db, guestID: guestID, loc: loc, clock: clk}
}

func (s *LocalStore) ensureRow(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx,
		`insert into guest_wallets (guest_id) values (?) on conflict (guest_id) do nothing`,
		s.guestID)
	return err
}

func (s *LocalStore) Balance(ctx context.Context) (int, error) {
	var credits int
	err := s.db.QueryRowContext(ctx,
		`select credits from guest_wallets where guest_id = ?`, s.guestID).Scan(&credits)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select guest balance: %w", err)
	}
	return credits, nil
}

func (s *LocalStore) AddCredits(ctx context.Context, amount int) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if err := s.ensureRow(ctx, tx); err != nil {
		return 0, err
	}
	var credits int
	err = tx.QueryRowContext(ctx,
		`update guest_wallets set credits = credits + ? where guest_id = ? returning credits`,
		amount, s.guestID).Scan(&credits)
	if err != nil {
		return 0, fmt.Errorf("add guest credits: %w", err)
	}
	return credits, tx.Commit()
}

func (s *LocalStore) Deduct(ctx context.Context, cost int, requiresDailyGrant bool) (Result, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, err
	}
	defer tx.Rollback()

	if err := s.ensureRow(ctx, tx); err != nil {
		return Result{}, err
	}

	var credits int
	var lastFree sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`select credits, last_free_at from guest_wallets where guest_id = ?`,
		s.guestID).Scan(&credits, &lastFree)
	if err != nil {
		return Result{}, fmt.Errorf("select guest wallet: %w", err)
	}

	now := s.clock.Now()
	if requiresDailyGrant && lastFree.Valid &&
		sameLocalDay(time.Unix(lastFree.Int64, 0), now, s.loc) {
		return Result{OK: false, Reason: ReasonInsufficientGrant, Balance: credits}, nil
	}
	if credits < cost {
		return Result{OK: false, Reason: ReasonInsufficientBalance, Balance: credits}, nil
	}

	if requiresDailyGrant {
		_, err = tx.ExecContext(ctx,
			`update guest_wallets set credits = credits - ?, last_free_at = ? where guest_id = ?`,
			cost, now.Unix(), s.guestID)
	} else {
		_, err = tx.ExecContext(ctx,
			`update guest_wallets set credits = credits - ? where guest_id = ?`,
			cost, s.guestID)
	}
	if err != nil {
		return Result{}, fmt.Errorf("deduct guest credits: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Result{}, err
	}
	return Result{OK: true, Balance: credits - cost}, nil
}

func (s *LocalStore) RestoreDailyGrant(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`update guest_wallets set last_free_at = null where guest_id = ?`, s.guestID)
	return err
}

func (s *LocalStore) ClaimDailyGrant(ctx context.Context) (CheckinResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return CheckinResult{}, err
	}
	defer tx.Rollback()

	if err := s.ensureRow(ctx, tx); err != nil {
		return CheckinResult{}, err
	}

	var credits, streak int
	var lastCheckin sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`select credits, streak, last_checkin_at from guest_wallets where guest_id = ?`,
		s.guestID).Scan(&credits, &streak, &lastCheckin)
	if err != nil {
		return CheckinResult{}, fmt.Errorf("select guest wallet: %w", err)
	}

	now := s.clock.Now()
	if lastCheckin.Valid && sameLocalDay(time.Unix(lastCheckin.Int64, 0), now, s.loc) {
		return CheckinResult{OK: false, Streak: streak, Balance: credits}, nil
	}

	if lastCheckin.Valid &&
		sameLocalDay(time.Unix(lastCheckin.Int64, 0), now.AddDate(0, 0, -1), s.loc) {
		streak++
	} else {
		streak = 1
	}
	reward := checkinReward(streak)

	_, err = tx.ExecContext(ctx,
		`update guest_wallets set credits = credits + ?, streak = ?, last_checkin_at = ? where guest_id = ?`,
		reward, streak, now.Unix(), s.guestID)
	if err != nil {
		return CheckinResult{}, fmt.Errorf("claim guest checkin: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return CheckinResult{}, err
	}
	return CheckinResult{OK: true, Streak: streak, Reward: reward, Balance: credits + reward}, nil
}

func (s *LocalStore) DailyGrantAvailable(ctx context.Context) (bool, error) {
	var lastFree sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`select last_free_at from guest_wallets where guest_id = ?`, s.guestID).Scan(&lastFree)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("select guest grant state: %w", err)
	}
	if !lastFree.Valid {
		return true, nil
	}
	return !sameLocalDay(time.Unix(lastFree.Int64, 0), s.clock.Now(), s.loc), nil
}

// checkinReward mirrors the seven-day stamp card: a milestone payout every
// seventh consecutive day, one credit otherwise.
func checkinReward(streak int) int {
	if streak > 0 && streak%7 == 0 {
		return 10
	}
	return 1
}

var _ Ledger = (*LocalStore)(nil)
