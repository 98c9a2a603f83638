package repo

import (
	"context"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// ProfileRepositoryPG implements domain.ProfileRepository backed by
// PostgreSQL.
type ProfileRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewProfileRepository creates a new ProfileRepositoryPG.
func NewProfileRepository(sql infra.SQLExecutor) *ProfileRepositoryPG {
	return &ProfileRepositoryPG{sql: sql}
}

// Ensure upserts the profile row so every authenticated caller has a
// ledger row to debit from the first request on.
func (r *ProfileRepositoryPG) Ensure(ctx context.Context, id, displayName string) (*domain.Profile, error) {
	return r.scan(ctx, sqlinline.QUpsertProfile, id, displayName)
}

func (r *ProfileRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	return r.scan(ctx, sqlinline.QSelectProfile, id)
}

func (r *ProfileRepositoryPG) SetPremium(ctx context.Context, id string, premium bool) (bool, error) {
	var got bool
	err := r.sql.QueryRow(ctx, sqlinline.QSetPremium, id, premium).Scan(&got)
	if err != nil {
		if infra.IsNoRows(err) {
			return false, domain.ErrNotFound
		}
		return false, err
	}
	return got, nil
}

func (r *ProfileRepositoryPG) scan(ctx context.Context, query string, args ...any) (*domain.Profile, error) {
	var p domain.Profile
	err := r.sql.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.DisplayName, &p.Premium, &p.Credits, &p.Streak, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
