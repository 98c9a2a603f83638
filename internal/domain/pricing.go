package domain

import "time"

// ActionType names a priced operation. Values match the reading topics and
// chat entry points exposed by the API.
type ActionType string

const (
	ActionDailyReading   ActionType = "daily"
	ActionMonthlyReading ActionType = "monthly"
	ActionLoveReading    ActionType = "love"
	ActionWorkReading    ActionType = "work"
	ActionFinanceReading ActionType = "finance"
	ActionHealthReading  ActionType = "health"
	ActionSocialReading  ActionType = "social"
	ActionLuckReading    ActionType = "luck"
	ActionFutureUnlock   ActionType = "future"
	ActionCelticReading  ActionType = "celtic"
	ActionRuneSingle     ActionType = "rune_single"
	ActionRuneThree      ActionType = "rune_three"
	ActionRuneFive       ActionType = "rune_five"
	ActionChatSession    ActionType = "chat_session"
)

// PricingRule describes how an action is charged. Cost is the listed price
// in credits. PremiumCost, when positive, replaces Cost for premium
// accounts. DailyFreeEligible actions may consume the once-per-day grant
// instead of balance. PremiumFreePerDay bounds the number of zero-cost
// uses a premium account gets before PremiumCost applies.
type PricingRule struct {
	Cost              int  `json:"cost"`
	PremiumCost       int  `json:"premium_cost,omitempty"`
	DailyFreeEligible bool `json:"daily_free_eligible,omitempty"`
	PremiumFreePerDay int  `json:"premium_free_per_day,omitempty"`
}

// PromoWindow is the admin-controlled discount applied to listed prices
// while active. It is read-only input to cost calculation.
type PromoWindow struct {
	DiscountAmount int
	Active         bool
	EndsAt         time.Time
}

// InEffect reports whether the discount applies at the given instant.
func (p PromoWindow) InEffect(now time.Time) bool {
	return p.Active && p.DiscountAmount > 0 && p.EndsAt.After(now)
}
