package repo

import (
	"context"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// PromoRepositoryPG reads the single-row discount settings table.
type PromoRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewPromoRepository creates a new PromoRepositoryPG.
func NewPromoRepository(sql infra.SQLExecutor) *PromoRepositoryPG {
	return &PromoRepositoryPG{sql: sql}
}

// Get returns the current discount window. A missing settings row means
// no promo is configured, not an error.
func (r *PromoRepositoryPG) Get(ctx context.Context) (domain.PromoWindow, error) {
	var w domain.PromoWindow
	err := r.sql.QueryRow(ctx, sqlinline.QSelectPromoSettings).Scan(&w.DiscountAmount, &w.Active, &w.EndsAt)
	if err != nil {
		if infra.IsNoRows(err) {
			return domain.PromoWindow{}, nil
		}
		return domain.PromoWindow{}, err
	}
	return w, nil
}
