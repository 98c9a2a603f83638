// Package pricing resolves the credit cost of gated actions. Listed prices
// come from a hot-reloadable JSON file; the promotional discount window is
// admin-managed in the database and consumed read-only here.
package pricing

import (
	"encoding/json"
	"fmt"
	"os"

	"server/internal/domain"
)

// DefaultTable mirrors the launch pricing of the reading catalogue.
func DefaultTable() map[domain.ActionType]domain.PricingRule {
	return map[domain.ActionType]domain.PricingRule{
		domain.ActionDailyReading:   {Cost: 1, DailyFreeEligible: true},
		domain.ActionMonthlyReading: {Cost: 10},
		domain.ActionLoveReading:    {Cost: 5},
		domain.ActionWorkReading:    {Cost: 3},
		domain.ActionFinanceReading: {Cost: 3},
		domain.ActionHealthReading:  {Cost: 3},
		domain.ActionSocialReading:  {Cost: 3},
		domain.ActionLuckReading:    {Cost: 3},
		domain.ActionFutureUnlock:   {Cost: 1},
		domain.ActionCelticReading:  {Cost: 15},
		domain.ActionRuneSingle:     {Cost: 1, DailyFreeEligible: true},
		domain.ActionRuneThree:      {Cost: 3},
		domain.ActionRuneFive:       {Cost: 5},
		domain.ActionChatSession:    {Cost: 10, PremiumCost: 5, PremiumFreePerDay: 1},
	}
}

// fallbackRule prices unknown action types.
var fallbackRule = domain.PricingRule{Cost: 3}

func loadTableFile(path string) (map[domain.ActionType]domain.PricingRule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing file: %w", err)
	}
	var parsed map[domain.ActionType]domain.PricingRule
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse pricing file: %w", err)
	}
	for action, rule := range parsed {
		if rule.Cost < 0 || rule.PremiumCost < 0 || rule.PremiumFreePerDay < 0 {
			return nil, fmt.Errorf("pricing entry %q has negative values", action)
		}
	}
	return parsed, nil
}
