package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"server/pkg/clock"
)

func TestPaceFor(t *testing.T) {
	cases := []struct {
		name      string
		length    int
		wantDelay time.Duration
		wantChunk int
	}{
		{"short", 120, 30 * time.Millisecond, 1},
		{"medium", 300, 20 * time.Millisecond, 2},
		{"long", 600, 10 * time.Millisecond, 3},
		{"boundary 200", 200, 30 * time.Millisecond, 1},
		{"boundary 500", 500, 20 * time.Millisecond, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PaceFor(strings.Repeat("ท", tc.length))
			if got.Delay != tc.wantDelay || got.Chunk != tc.wantChunk {
				t.Fatalf("PaceFor(len %d) = %+v, want {%v %d}", tc.length, got, tc.wantDelay, tc.wantChunk)
			}
		})
	}
}

func TestRevealStreamsWholeText(t *testing.T) {
	var b strings.Builder
	text := "ดวงชะตาเดือนนี้สดใส"
	err := Reveal(context.Background(), clock.System(), text, func(chunk string) error {
		b.WriteString(chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if b.String() != text {
		t.Fatalf("streamed %q, want %q", b.String(), text)
	}
}

func TestRevealChunking(t *testing.T) {
	text := strings.Repeat("ท", 601)
	var chunks []string
	if err := Reveal(context.Background(), clock.System(), text, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	}); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	// 200 full chunks of 3 plus the trailing rune.
	if len(chunks) != 201 {
		t.Fatalf("chunks = %d, want 201", len(chunks))
	}
	if len([]rune(chunks[0])) != 3 || len([]rune(chunks[200])) != 1 {
		t.Fatalf("chunk sizes = %d/%d, want 3/1", len([]rune(chunks[0])), len([]rune(chunks[200])))
	}
}

func TestRevealCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var emitted int
	err := Reveal(ctx, clock.System(), strings.Repeat("ท", 50), func(chunk string) error {
		emitted++
		if emitted == 5 {
			cancel()
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if emitted != 5 {
		t.Fatalf("emitted = %d after cancel, want 5", emitted)
	}
}

func TestRevealEmitErrorStops(t *testing.T) {
	wantErr := errors.New("client gone")
	var emitted int
	err := Reveal(context.Background(), clock.System(), "สวัสดีครับ", func(string) error {
		emitted++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("want emit error, got %v", err)
	}
	if emitted != 1 {
		t.Fatalf("emitted = %d, want 1", emitted)
	}
}
