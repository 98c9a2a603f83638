package ledger

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"server/internal/sqlinline"
)

// fakeSQL dispatches on the sqlinline constant and replies with canned rows.
type fakeSQL struct {
	rows  map[string]func(dest ...any) error
	execs []string
}

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

func (f *fakeSQL) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, query)
	return pgconn.CommandTag{}, nil
}

func (f *fakeSQL) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	if fn, ok := f.rows[query]; ok {
		return fakeRow{scan: fn}
	}
	return fakeRow{}
}

func (f *fakeSQL) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func scanInts(values ...any) func(dest ...any) error {
	return func(dest ...any) error {
		for i, v := range values {
			switch d := dest[i].(type) {
			case *int:
				d2 := v.(int)
				*d = d2
			case *bool:
				*d = v.(bool)
			}
		}
		return nil
	}
}

func TestRemoteStoreDeductSuccess(t *testing.T) {
	sqlExec := &fakeSQL{rows: map[string]func(dest ...any) error{
		sqlinline.QDeductCredits: scanInts(7),
	}}
	store := NewRemoteStore(sqlExec, "acct-1", "Asia/Bangkok")

	res, err := store.Deduct(context.Background(), 3, false)
	if err != nil {
		t.Fatalf("deduct: %v", err)
	}
	if !res.OK || res.Balance != 7 {
		t.Fatalf("deduct = %+v, want OK with balance 7", res)
	}
}

func TestRemoteStoreDeductClassifiesRefusal(t *testing.T) {
	tests := []struct {
		name           string
		requiresGrant  bool
		grantUsedToday bool
		wantReason     Reason
	}{
		{"grant exhausted", true, true, ReasonInsufficientGrant},
		{"balance short", false, false, ReasonInsufficientBalance},
		{"grant ok but broke", true, false, ReasonInsufficientBalance},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sqlExec := &fakeSQL{rows: map[string]func(dest ...any) error{
				// No QDeductCredits entry: the guarded UPDATE matches nothing.
				sqlinline.QSelectGrantState: scanInts(2, tc.grantUsedToday),
			}}
			store := NewRemoteStore(sqlExec, "acct-1", "Asia/Bangkok")

			res, err := store.Deduct(context.Background(), 5, tc.requiresGrant)
			if err != nil {
				t.Fatalf("deduct: %v", err)
			}
			if res.OK {
				t.Fatalf("deduct unexpectedly succeeded: %+v", res)
			}
			if res.Reason != tc.wantReason {
				t.Fatalf("reason = %q, want %q", res.Reason, tc.wantReason)
			}
			if res.Balance != 2 {
				t.Fatalf("refusal must not touch balance: %d", res.Balance)
			}
		})
	}
}

func TestRemoteStoreClaimAlreadyCheckedIn(t *testing.T) {
	sqlExec := &fakeSQL{rows: map[string]func(dest ...any) error{
		// QClaimDailyCheckin absent: no row means today was already claimed.
		sqlinline.QSelectCredits: scanInts(12),
	}}
	store := NewRemoteStore(sqlExec, "acct-1", "Asia/Bangkok")

	res, err := store.ClaimDailyGrant(context.Background())
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if res.OK || res.Balance != 12 {
		t.Fatalf("claim = %+v, want refused with balance 12", res)
	}
}

func TestRemoteStoreRestoreDailyGrant(t *testing.T) {
	sqlExec := &fakeSQL{rows: map[string]func(dest ...any) error{}}
	store := NewRemoteStore(sqlExec, "acct-1", "Asia/Bangkok")

	if err := store.RestoreDailyGrant(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if len(sqlExec.execs) != 1 || sqlExec.execs[0] != sqlinline.QRestoreDailyGrant {
		t.Fatalf("expected restore statement, got %v", sqlExec.execs)
	}
}
