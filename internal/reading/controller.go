// Package reading drives a card reading from topic selection through card
// revelation as an explicit state machine. All timed transitions run on an
// injectable clock so tests never wait on the wall clock.
package reading

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"server/internal/domain"
	"server/pkg/clock"
)

// State names a phase of the reading flow.
type State string

const (
	StateIdle          State = "idle"
	StateTopicSelected State = "topic_selected"
	StateShuffling     State = "shuffling"
	StateCutting       State = "cutting"
	StatePicking       State = "picking"
	StateRevealing     State = "revealing"
	StateComplete      State = "complete"
)

// Controller is one account's in-flight reading session. It is created on
// "start reading" and destroyed on reset or completion.
type Controller struct {
	mu sync.Mutex

	id     string
	topic  Topic
	spread Spread

	state    State
	deck     []Card
	selected []Card
	revealed []int

	rng        *rand.Rand
	clock      clock.Clock
	shuffleDur time.Duration
	stagger    time.Duration
	timers     []clock.Timer
}

// Snapshot is the observable session state for rendering.
type Snapshot struct {
	ID        string `json:"id"`
	Topic     Topic  `json:"topic"`
	State     State  `json:"state"`
	PickCount int    `json:"required_pick_count"`
	Deck      []Card `json:"deck,omitempty"`
	Selected  []Card `json:"selected"`
	Revealed  []int  `json:"revealed"`
}

// NewController selects the topic and prepares an idle session. The random
// source is injected for deterministic decks in tests.
func NewController(id string, topic Topic, src rand.Source, clk clock.Clock, shuffleDur, stagger time.Duration) (*Controller, error) {
	spread, ok := SpreadForTopic(topic)
	if !ok {
		return nil, fmt.Errorf("%w: unknown topic %q", domain.ErrValidation, topic)
	}
	return &Controller{
		id:         id,
		topic:      topic,
		spread:     spread,
		state:      StateTopicSelected,
		rng:        rand.New(src),
		clock:      clk,
		shuffleDur: shuffleDur,
		stagger:    stagger,
	}, nil
}

// StartReading enters the timed shuffle-then-cut sequence. Fixed-duration
// timers assemble the deck, cut it, and advance to picking; the timers
// cannot be skipped.
func (c *Controller) StartReading() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle && c.state != StateTopicSelected {
		return fmt.Errorf("%w: cannot start reading from %s", domain.ErrValidation, c.state)
	}
	c.state = StateShuffling
	c.schedule(c.shuffleDur, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state != StateShuffling {
			return
		}
		c.deck = c.shuffledPool()
		c.state = StateCutting
	})
	c.schedule(c.shuffleDur+c.shuffleDur/2, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state != StateCutting {
			return
		}
		pivot := len(c.deck)/2 + c.rng.Intn(10) - 5
		c.deck = append(append([]Card(nil), c.deck[pivot:]...), c.deck[:pivot]...)
		c.state = StatePicking
	})
	return nil
}

// QuickDraw skips manual picking: the deck is assembled, the spread's
// cards drawn off the top and revealed immediately.
func (c *Controller) QuickDraw() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle && c.state != StateTopicSelected {
		return fmt.Errorf("%w: cannot quick-draw from %s", domain.ErrValidation, c.state)
	}
	c.deck = c.shuffledPool()
	c.selected = append([]Card(nil), c.deck[:c.spread.PickCount]...)
	c.revealAllLocked()
	return nil
}

// Pick adds a card to the selection. Duplicate picks of an already
// selected card are ignored, as are picks beyond the spread size.
func (c *Controller) Pick(cardID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePicking {
		return fmt.Errorf("%w: cannot pick from %s", domain.ErrValidation, c.state)
	}
	card, ok := c.deckCard(cardID)
	if !ok {
		return fmt.Errorf("%w: card %d not in deck", domain.ErrValidation, cardID)
	}
	for _, s := range c.selected {
		if s.ID == cardID {
			return nil
		}
	}
	if len(c.selected) >= c.spread.PickCount {
		return nil
	}
	c.selected = append(c.selected, card)
	return nil
}

// ManualShuffle rebuilds the deck from the topic pool in place, clearing
// the current selection. The session stays in the picking phase.
func (c *Controller) ManualShuffle() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePicking {
		return fmt.Errorf("%w: cannot reshuffle from %s", domain.ErrValidation, c.state)
	}
	c.selected = nil
	c.deck = c.shuffledPool()
	return nil
}

// ManualCut rotates the deck around the given pivot, clearing the current
// selection. A non-positive pivot picks the midpoint with a small jitter.
// The cut is a rotation of the existing order, never a re-shuffle, and
// the session stays in the picking phase.
func (c *Controller) ManualCut(pivot int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePicking {
		return fmt.Errorf("%w: cannot cut from %s", domain.ErrValidation, c.state)
	}
	if pivot <= 0 || pivot >= len(c.deck) {
		pivot = len(c.deck)/2 + c.rng.Intn(10) - 5
	}
	c.selected = nil
	c.deck = append(append([]Card(nil), c.deck[pivot:]...), c.deck[:pivot]...)
	return nil
}

// Confirm finishes picking. An incomplete selection is rejected and the
// state does not advance.
func (c *Controller) Confirm() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePicking {
		return fmt.Errorf("%w: cannot confirm from %s", domain.ErrValidation, c.state)
	}
	if len(c.selected) != c.spread.PickCount {
		return fmt.Errorf("%w: %d of %d cards selected", domain.ErrValidation, len(c.selected), c.spread.PickCount)
	}
	if !c.spread.StaggerReveal {
		c.revealAllLocked()
		return nil
	}

	c.state = StateRevealing
	c.revealed = nil
	for i := 0; i < c.spread.PickCount; i++ {
		idx := i
		c.schedule(time.Duration(idx)*c.stagger, func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.state != StateRevealing {
				return
			}
			c.revealed = append(c.revealed, idx)
			if len(c.revealed) == c.spread.PickCount {
				c.state = StateComplete
			}
		})
	}
	return nil
}

// Reset tears the session down: pending timers are cancelled so nothing
// stale can mutate state later. Committed debits are never reversed here.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelTimersLocked()
	c.state = StateIdle
	c.deck = nil
	c.selected = nil
	c.revealed = nil
}

// Snapshot returns a copy of the observable state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		ID:        c.id,
		Topic:     c.topic,
		State:     c.state,
		PickCount: c.spread.PickCount,
		Deck:      append([]Card(nil), c.deck...),
		Selected:  append([]Card(nil), c.selected...),
		Revealed:  append([]int(nil), c.revealed...),
	}
}

func (c *Controller) revealAllLocked() {
	c.revealed = make([]int, len(c.selected))
	for i := range c.selected {
		c.revealed[i] = i
	}
	c.state = StateComplete
}

func (c *Controller) shuffledPool() []Card {
	pool := c.topic.pool()
	deck := append([]Card(nil), pool...)
	c.rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

func (c *Controller) deckCard(cardID int) (Card, bool) {
	for _, card := range c.deck {
		if card.ID == cardID {
			return card, true
		}
	}
	return Card{}, false
}

func (c *Controller) schedule(d time.Duration, fn func()) {
	c.timers = append(c.timers, c.clock.AfterFunc(d, fn))
}

func (c *Controller) cancelTimersLocked() {
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
}
