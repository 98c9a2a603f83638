package reading

import "server/internal/domain"

// Topic is a reading subject chosen before the deck is assembled.
type Topic string

const (
	TopicDaily   Topic = "daily"
	TopicMonthly Topic = "monthly"
	TopicLove    Topic = "love"
	TopicWork    Topic = "work"
	TopicFinance Topic = "finance"
	TopicHealth  Topic = "health"
	TopicSocial  Topic = "social"
	TopicLuck    Topic = "luck"
	TopicFuture  Topic = "future"
	TopicCeltic  Topic = "celtic"
)

// PoolKind selects the eligible card pool for a topic.
type PoolKind string

const (
	PoolFull  PoolKind = "full"
	PoolMajor PoolKind = "major"
)

// Spread is the pure-function outcome of topic selection. StaggerReveal
// spreads flip their cards one by one on a timer after confirmation.
type Spread struct {
	PickCount     int
	Pool          PoolKind
	StaggerReveal bool
}

var spreads = map[Topic]Spread{
	TopicDaily:   {PickCount: 1, Pool: PoolFull},
	TopicMonthly: {PickCount: 10, Pool: PoolFull, StaggerReveal: true},
	TopicLove:    {PickCount: 3, Pool: PoolMajor},
	TopicWork:    {PickCount: 3, Pool: PoolMajor},
	TopicFinance: {PickCount: 3, Pool: PoolMajor},
	TopicHealth:  {PickCount: 3, Pool: PoolMajor},
	TopicSocial:  {PickCount: 3, Pool: PoolMajor},
	TopicLuck:    {PickCount: 3, Pool: PoolMajor},
	TopicFuture:  {PickCount: 3, Pool: PoolFull},
	TopicCeltic:  {PickCount: 10, Pool: PoolFull, StaggerReveal: true},
}

// SpreadForTopic maps a topic to its spread, reporting false for unknown
// topics.
func SpreadForTopic(topic Topic) (Spread, bool) {
	s, ok := spreads[topic]
	return s, ok
}

// Action maps the topic to its priced action type.
func (t Topic) Action() domain.ActionType {
	return domain.ActionType(t)
}

func (t Topic) pool() []Card {
	s := spreads[t]
	if s.Pool == PoolMajor {
		return MajorArcana()
	}
	return FullDeck()
}
