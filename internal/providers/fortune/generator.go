// Package fortune generates teller replies for fortune chat sessions.
package fortune

import (
	"context"
	"errors"
	"strings"

	"server/internal/domain"
)

// ErrEmptyReply indicates the provider returned a response with no usable
// text.
var ErrEmptyReply = errors.New("fortune: empty reply")

// TellerGender selects the teller persona's polite particle.
type TellerGender string

const (
	TellerFemale TellerGender = "female"
	TellerMale   TellerGender = "male"
)

// Profile carries the seeker details woven into the opening prompt.
type Profile struct {
	Name     string
	Birthday string
	Topic    string
	Question string
	Teller   TellerGender
}

// Particle returns the Thai sentence-final particle for the persona.
func (p Profile) Particle() string {
	if p.Teller == TellerMale {
		return "ครับ"
	}
	return "ค่ะ"
}

// Request is one generation call: a system persona plus the visible
// conversation so far. The last history entry is the pending user turn.
type Request struct {
	System  string
	History []domain.ChatMessage
}

// Generator produces the teller's next reply.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Chain tries generators in order until one succeeds. OnFallback, when
// set, observes each failed attempt before the next generator runs.
type Chain struct {
	Generators []Generator
	OnFallback func(index int, err error)
}

func (c *Chain) Generate(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for i, g := range c.Generators {
		text, err := g.Generate(ctx, req)
		if err == nil {
			if strings.TrimSpace(text) == "" {
				err = ErrEmptyReply
			} else {
				return text, nil
			}
		}
		lastErr = err
		if c.OnFallback != nil && i < len(c.Generators)-1 {
			c.OnFallback(i, err)
		}
	}
	if lastErr == nil {
		lastErr = ErrEmptyReply
	}
	return "", lastErr
}
