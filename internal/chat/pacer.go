package chat

import (
	"context"
	"time"

	"server/pkg/clock"
)

// Pace is the reveal speed chosen for a reply. Longer replies stream
// faster and in bigger chunks so the total reveal time stays bounded.
type Pace struct {
	Delay time.Duration
	Chunk int
}

// PaceFor derives the pace from the reply length in runes.
func PaceFor(text string) Pace {
	n := len([]rune(text))
	switch {
	case n > 500:
		return Pace{Delay: 10 * time.Millisecond, Chunk: 3}
	case n > 200:
		return Pace{Delay: 20 * time.Millisecond, Chunk: 2}
	default:
		return Pace{Delay: 30 * time.Millisecond, Chunk: 1}
	}
}

// Reveal streams text to emit in paced chunks. Cancelling the context
// stops the stream mid-reveal; the transcript itself is never affected.
func Reveal(ctx context.Context, clk clock.Clock, text string, emit func(chunk string) error) error {
	pace := PaceFor(text)
	runes := []rune(text)
	for i := 0; i < len(runes); i += pace.Chunk {
		end := i + pace.Chunk
		if end > len(runes) {
			end = len(runes)
		}
		if err := emit(string(runes[i:end])); err != nil {
			return err
		}
		if end == len(runes) {
			break
		}
		if err := wait(ctx, clk, pace.Delay); err != nil {
			return err
		}
	}
	return nil
}

func wait(ctx context.Context, clk clock.Clock, d time.Duration) error {
	done := make(chan struct{})
	t := clk.AfterFunc(d, func() { close(done) })
	select {
	case <-ctx.Done():
		t.Stop()
		return ctx.Err()
	case <-done:
		return nil
	}
}
