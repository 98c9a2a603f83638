package reading

import "fmt"

// Arcana partitions the deck.
type Arcana string

const (
	ArcanaMajor Arcana = "major"
	ArcanaMinor Arcana = "minor"
)

// Card is one tarot card reference. IDs are stable: 0–21 are the major
// arcana in traditional order, 22–77 the minor arcana by suit then rank.
type Card struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Arcana Arcana `json:"arcana"`
	Suit   string `json:"suit,omitempty"`
}

var majorArcanaNames = []string{
	"The Fool", "The Magician", "The High Priestess", "The Empress",
	"The Emperor", "The Hierophant", "The Lovers", "The Chariot",
	"Strength", "The Hermit", "Wheel of Fortune", "Justice",
	"The Hanged Man", "Death", "Temperance", "The Devil",
	"The Tower", "The Star", "The Moon", "The Sun",
	"Judgement", "The World",
}

var minorSuits = []string{"Wands", "Cups", "Swords", "Pentacles"}

var minorRanks = []string{
	"Ace", "Two", "Three", "Four", "Five", "Six", "Seven",
	"Eight", "Nine", "Ten", "Page", "Knight", "Queen", "King",
}

// FullDeck returns all 78 cards in canonical order.
func FullDeck() []Card {
	deck := make([]Card, 0, 78)
	for i, name := range majorArcanaNames {
		deck = append(deck, Card{ID: i, Name: name, Arcana: ArcanaMajor})
	}
	id := len(majorArcanaNames)
	for _, suit := range minorSuits {
		for _, rank := range minorRanks {
			deck = append(deck, Card{
				ID:     id,
				Name:   fmt.Sprintf("%s of %s", rank, suit),
				Arcana: ArcanaMinor,
				Suit:   suit,
			})
			id++
		}
	}
	return deck
}

// MajorArcana returns the reduced 22-card pool.
func MajorArcana() []Card {
	return FullDeck()[:len(majorArcanaNames)]
}
