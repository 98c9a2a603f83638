package reading

import (
	"errors"
	"math/rand"
	"testing"

	"server/internal/domain"
)

func TestRuneActionFor(t *testing.T) {
	cases := []struct {
		n      int
		want   domain.ActionType
		wantOK bool
	}{
		{1, domain.ActionRuneSingle, true},
		{3, domain.ActionRuneThree, true},
		{5, domain.ActionRuneFive, true},
		{0, "", false},
		{2, "", false},
		{7, "", false},
	}
	for _, tc := range cases {
		got, err := RuneActionFor(tc.n)
		if tc.wantOK {
			if err != nil {
				t.Fatalf("RuneActionFor(%d): %v", tc.n, err)
			}
			if got != tc.want {
				t.Fatalf("RuneActionFor(%d) = %s, want %s", tc.n, got, tc.want)
			}
			continue
		}
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("RuneActionFor(%d): want ErrValidation, got %v", tc.n, err)
		}
	}
}

func TestDrawRunesDistinct(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, n := range []int{1, 3, 5} {
		drawn, err := DrawRunes(n, rng)
		if err != nil {
			t.Fatalf("DrawRunes(%d): %v", n, err)
		}
		if len(drawn) != n {
			t.Fatalf("DrawRunes(%d) = %d runes", n, len(drawn))
		}
		seen := map[int]bool{}
		for _, r := range drawn {
			if seen[r.ID] {
				t.Fatalf("DrawRunes(%d): duplicate rune %s", n, r.Name)
			}
			seen[r.ID] = true
		}
	}
}

func TestDrawRunesDeterministicWithSeed(t *testing.T) {
	a, err := DrawRunes(5, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("DrawRunes: %v", err)
	}
	b, err := DrawRunes(5, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("DrawRunes: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestRuneSetComplete(t *testing.T) {
	set := RuneSet()
	if len(set) != 24 {
		t.Fatalf("rune set = %d, want 24", len(set))
	}
	for i, r := range set {
		if r.ID != i {
			t.Fatalf("rune %d has id %d", i, r.ID)
		}
		if r.Name == "" || r.Symbol == "" {
			t.Fatalf("rune %d incomplete: %+v", i, r)
		}
	}
}
