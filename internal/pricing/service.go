package pricing

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/pkg/clock"
)

// Service is the read side of pricing: listed rules plus the active promo
// discount. Safe for concurrent use.
type Service struct {
	mu    sync.RWMutex
	table map[domain.ActionType]domain.PricingRule

	promo  domain.PromoRepository
	clock  clock.Clock
	logger zerolog.Logger
}

// NewService starts from the default table. promo may be nil when no
// database is attached (tests, guest-only deployments).
func NewService(promo domain.PromoRepository, clk clock.Clock, logger zerolog.Logger) *Service {
	return &Service{
		table:  DefaultTable(),
		promo:  promo,
		clock:  clk,
		logger: logger,
	}
}

// Rule returns the listed rule for an action, falling back to the default
// price for unknown actions.
func (s *Service) Rule(action domain.ActionType) domain.PricingRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rule, ok := s.table[action]; ok {
		return rule
	}
	return fallbackRule
}

// EffectiveCost resolves the charge for an account before entitlement-state
// adjustments: the premium rate when one is listed and the account is
// premium, then the promo discount when the window is in effect. Discounts
// never price a paid action below one credit.
func (s *Service) EffectiveCost(ctx context.Context, action domain.ActionType, premium bool) (int, domain.PricingRule) {
	rule := s.Rule(action)
	cost := rule.Cost
	if premium && rule.PremiumCost > 0 {
		cost = rule.PremiumCost
	}
	if cost == 0 {
		return 0, rule
	}

	if s.promo != nil {
		window, err := s.promo.Get(ctx)
		if err != nil {
			// Pricing must not fail closed on a promo read: charge list price.
			s.logger.Warn().Err(err).Msg("promo window read failed, using list price")
			return cost, rule
		}
		if window.InEffect(s.clock.Now()) {
			cost -= window.DiscountAmount
			if cost < 1 {
				cost = 1
			}
		}
	}
	return cost, rule
}

// LoadFile replaces the listed table from the JSON file at path.
func (s *Service) LoadFile(path string) error {
	table, err := loadTableFile(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.table = table
	s.mu.Unlock()
	s.logger.Info().Str("path", path).Int("entries", len(table)).Msg("pricing table loaded")
	return nil
}

// Watch reloads the pricing file whenever it changes, until ctx is done.
// The directory is watched because editors and deploy tools often replace
// files via atomic rename instead of writing in place.
func (s *Service) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}
	base := filepath.Base(path)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != base {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					if err := s.LoadFile(path); err != nil {
						s.logger.Error().Err(err).Msg("pricing reload failed, keeping previous table")
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Error().Err(err).Msg("pricing watcher error")
			}
		}
	}()
	return nil
}

// Promo returns the current discount window; a failed read reports no
// promo, matching EffectiveCost's fail-open behavior.
func (s *Service) Promo(ctx context.Context) domain.PromoWindow {
	if s.promo == nil {
		return domain.PromoWindow{}
	}
	window, err := s.promo.Get(ctx)
	if err != nil {
		return domain.PromoWindow{}
	}
	return window
}

// Snapshot returns a copy of the listed table for the pricing endpoint.
func (s *Service) Snapshot() map[domain.ActionType]domain.PricingRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.ActionType]domain.PricingRule, len(s.table))
	for k, v := range s.table {
		out[k] = v
	}
	return out
}
