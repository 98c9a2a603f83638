package domain

import (
	"context"
	"time"
)

// Profile is the server-side account row for authenticated users. The
// credit balance and grant timestamps on it are owned by the ledger;
// everything else is identity state.
type Profile struct {
	ID          string
	DisplayName string
	Premium     bool
	Credits     int
	Streak      int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProfileRepository manages authenticated account rows.
type ProfileRepository interface {
	// Ensure upserts the row for the given account so a first-time caller
	// always has a ledger to debit.
	Ensure(ctx context.Context, id, displayName string) (*Profile, error)
	GetByID(ctx context.Context, id string) (*Profile, error)
	SetPremium(ctx context.Context, id string, premium bool) (bool, error)
}
