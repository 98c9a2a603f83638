package reading

import (
	"fmt"
	"math/rand"

	"server/internal/domain"
)

// Rune is one stone of the Elder Futhark set.
type Rune struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// DrawnRune is a rune with its cast orientation.
type DrawnRune struct {
	Rune
	Reversed bool `json:"reversed"`
}

var elderFuthark = []Rune{
	{0, "Fehu", "ᚠ"},
	{1, "Uruz", "ᚢ"},
	{2, "Thurisaz", "ᚦ"},
	{3, "Ansuz", "ᚨ"},
	{4, "Raidho", "ᚱ"},
	{5, "Kenaz", "ᚲ"},
	{6, "Gebo", "ᚷ"},
	{7, "Wunjo", "ᚹ"},
	{8, "Hagalaz", "ᚺ"},
	{9, "Nauthiz", "ᚾ"},
	{10, "Isa", "ᛁ"},
	{11, "Jera", "ᛃ"},
	{12, "Eihwaz", "ᛇ"},
	{13, "Perthro", "ᛈ"},
	{14, "Algiz", "ᛉ"},
	{15, "Sowilo", "ᛊ"},
	{16, "Tiwaz", "ᛏ"},
	{17, "Berkano", "ᛒ"},
	{18, "Ehwaz", "ᛖ"},
	{19, "Mannaz", "ᛗ"},
	{20, "Laguz", "ᛚ"},
	{21, "Ingwaz", "ᛜ"},
	{22, "Dagaz", "ᛞ"},
	{23, "Othala", "ᛟ"},
}

// RuneSet returns the full Elder Futhark in canonical order.
func RuneSet() []Rune {
	return append([]Rune(nil), elderFuthark...)
}

// runeActions maps a draw size to its chargeable action.
var runeActions = map[int]domain.ActionType{
	1: domain.ActionRuneSingle,
	3: domain.ActionRuneThree,
	5: domain.ActionRuneFive,
}

// RuneActionFor returns the action charged for drawing n runes.
func RuneActionFor(n int) (domain.ActionType, error) {
	a, ok := runeActions[n]
	if !ok {
		return "", fmt.Errorf("%w: unsupported rune draw size %d", domain.ErrValidation, n)
	}
	return a, nil
}

// DrawRunes casts n distinct runes with independent orientations.
func DrawRunes(n int, rng *rand.Rand) ([]DrawnRune, error) {
	if _, err := RuneActionFor(n); err != nil {
		return nil, err
	}
	perm := rng.Perm(len(elderFuthark))
	out := make([]DrawnRune, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, DrawnRune{
			Rune:     elderFuthark[idx],
			Reversed: rng.Intn(2) == 1,
		})
	}
	return out, nil
}
