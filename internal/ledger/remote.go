package ledger

import (
	"context"
	"fmt"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// RemoteStore implements Ledger against the authoritative profiles table.
// The deduct path is a single conditional UPDATE so concurrent duplicate
// requests (including from other devices) serialize on the row.
type RemoteStore struct {
	sql       infra.SQLExecutor
	accountID string
	zone      string
}

// NewRemoteStore binds the ledger to one authenticated account. zone is the
// IANA name used for calendar-day comparisons server-side.
func NewRemoteStore(sqlExec infra.SQLExecutor, accountID, zone string) *RemoteStore {
	return &RemoteStore{sql: sqlExec, accountID: accountID, zone: zone}
}

func (s *RemoteStore) Balance(ctx context.Context) (int, error) {
	var credits int
	row := s.sql.QueryRow(ctx, sqlinline.QSelectCredits, s.accountID)
	if err := row.Scan(&credits); err != nil {
		if infra.IsNoRows(err) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("select credits: %w", err)
	}
	return credits, nil
}

func (s *RemoteStore) AddCredits(ctx context.Context, amount int) (int, error) {
	var credits int
	row := s.sql.QueryRow(ctx, sqlinline.QAddCredits, s.accountID, amount)
	if err := row.Scan(&credits); err != nil {
		if infra.IsNoRows(err) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("add credits: %w", err)
	}
	return credits, nil
}

func (s *RemoteStore) Deduct(ctx context.Context, cost int, requiresDailyGrant bool) (Result, error) {
	var credits int
	row := s.sql.QueryRow(ctx, sqlinline.QDeductCredits, s.accountID, cost, requiresDailyGrant, s.zone)
	err := row.Scan(&credits)
	if err == nil {
		return Result{OK: true, Balance: credits}, nil
	}
	if !infra.IsNoRows(err) {
		return Result{}, fmt.Errorf("deduct credits: %w", err)
	}

	// The guarded UPDATE matched nothing; read back to classify the refusal.
	var balance int
	var grantUsedToday bool
	stateRow := s.sql.QueryRow(ctx, sqlinline.QSelectGrantState, s.accountID, s.zone)
	if err := stateRow.Scan(&balance, &grantUsedToday); err != nil {
		if infra.IsNoRows(err) {
			return Result{}, domain.ErrNotFound
		}
		return Result{}, fmt.Errorf("select grant state: %w", err)
	}
	if requiresDailyGrant && grantUsedToday {
		return Result{OK: false, Reason: ReasonInsufficientGrant, Balance: balance}, nil
	}
	return Result{OK: false, Reason: ReasonInsufficientBalance, Balance: balance}, nil
}

func (s *RemoteStore) RestoreDailyGrant(ctx context.Context) error {
	if _, err := s.sql.Exec(ctx, sqlinline.QRestoreDailyGrant, s.accountID); err != nil {
		return fmt.Errorf("restore daily grant: %w", err)
	}
	return nil
}

func (s *RemoteStore) ClaimDailyGrant(ctx context.Context) (CheckinResult, error) {
	var res CheckinResult
	row := s.sql.QueryRow(ctx, sqlinline.QClaimDailyCheckin, s.accountID, s.zone)
	if err := row.Scan(&res.Streak, &res.Reward, &res.Balance); err != nil {
		if infra.IsNoRows(err) {
			// Already claimed today; report current state without reward.
			balance, berr := s.Balance(ctx)
			if berr != nil {
				return CheckinResult{}, berr
			}
			return CheckinResult{OK: false, Balance: balance}, nil
		}
		return CheckinResult{}, fmt.Errorf("claim daily checkin: %w", err)
	}
	res.OK = true
	return res, nil
}

func (s *RemoteStore) DailyGrantAvailable(ctx context.Context) (bool, error) {
	var balance int
	var grantUsedToday bool
	row := s.sql.QueryRow(ctx, sqlinline.QSelectGrantState, s.accountID, s.zone)
	if err := row.Scan(&balance, &grantUsedToday); err != nil {
		if infra.IsNoRows(err) {
			return false, domain.ErrNotFound
		}
		return false, fmt.Errorf("select grant state: %w", err)
	}
	return !grantUsedToday, nil
}

var _ Ledger = (*RemoteStore)(nil)
