package handlers

import (
	"net/http"
)

// PricingTable returns the listed rules plus the promo window so clients
// can render prices without a round trip per action.
func (a *App) PricingTable(w http.ResponseWriter, r *http.Request) {
	promo := a.Pricing.Promo(r.Context())
	resp := map[string]any{
		"actions": a.Pricing.Snapshot(),
		"promo": map[string]any{
			"active":          promo.InEffect(a.Clock.Now()),
			"discount_amount": promo.DiscountAmount,
		},
	}
	if !promo.EndsAt.IsZero() {
		resp["promo"].(map[string]any)["ends_at"] = promo.EndsAt
	}
	a.json(w, http.StatusOK, resp)
}
