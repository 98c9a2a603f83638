package fortune

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"server/internal/domain"
)

func chatReq(turns ...string) Request {
	req := Request{System: "you are a fortune teller"}
	for i, text := range turns {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleModel
		}
		req.History = append(req.History, domain.ChatMessage{Role: role, Text: text})
	}
	return req
}

func TestGeminiGenerate(t *testing.T) {
	var captured geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Goog-Api-Key"); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}
		if !strings.Contains(r.URL.Path, "models/gemini-2.0-flash:generateContent") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"โชคชะตากำลังเข้าข้างคุณค่ะ"}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	g := NewGemini(GeminiOptions{APIKey: "test-key", BaseURL: srv.URL})
	text, err := g.Generate(context.Background(), chatReq("ดูดวงความรักให้หน่อย", "ได้เลยค่ะ", "เดือนหน้าเป็นยังไง"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "โชคชะตากำลังเข้าข้างคุณค่ะ" {
		t.Fatalf("text = %q", text)
	}
	if captured.SystemInstruction == nil || len(captured.SystemInstruction.Parts) == 0 {
		t.Fatal("system instruction not sent")
	}
	if len(captured.Contents) != 3 {
		t.Fatalf("contents = %d, want 3", len(captured.Contents))
	}
	if captured.Contents[1].Role != "model" {
		t.Fatalf("second turn role = %q, want model", captured.Contents[1].Role)
	}
}

func TestGeminiErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantSub string
	}{
		{"api error message", 429, `{"error":{"message":"quota exceeded"}}`, "quota exceeded"},
		{"opaque failure", 500, `oops`, "status 500"},
		{"empty candidates", 200, `{"candidates":[]}`, "empty reply"},
		{"safety stop", 200, `{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`, "SAFETY"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			g := NewGemini(GeminiOptions{APIKey: "k", BaseURL: srv.URL})
			_, err := g.Generate(context.Background(), chatReq("สวัสดี"))
			if err == nil || !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("err = %v, want substring %q", err, tc.wantSub)
			}
		})
	}
}

func TestGeminiMissingKey(t *testing.T) {
	g := NewGemini(GeminiOptions{})
	if _, err := g.Generate(context.Background(), chatReq("สวัสดี")); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("want ErrMissingAPIKey, got %v", err)
	}
}

type stubGen struct {
	text string
	err  error
}

func (s stubGen) Generate(context.Context, Request) (string, error) {
	return s.text, s.err
}

func TestChainFallsBack(t *testing.T) {
	var fallbacks []int
	c := &Chain{
		Generators: []Generator{
			stubGen{err: errors.New("down")},
			stubGen{text: "   "},
			stubGen{text: "คำทำนายสำรองค่ะ"},
		},
		OnFallback: func(i int, err error) { fallbacks = append(fallbacks, i) },
	}
	text, err := c.Generate(context.Background(), chatReq("สวัสดี"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "คำทำนายสำรองค่ะ" {
		t.Fatalf("text = %q", text)
	}
	if len(fallbacks) != 2 || fallbacks[0] != 0 || fallbacks[1] != 1 {
		t.Fatalf("fallbacks = %v", fallbacks)
	}
}

func TestChainAllFail(t *testing.T) {
	wantErr := errors.New("still down")
	c := &Chain{Generators: []Generator{stubGen{err: errors.New("down")}, stubGen{err: wantErr}}}
	if _, err := c.Generate(context.Background(), chatReq("สวัสดี")); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want last generator error", err)
	}
}

func TestStaticAlwaysAnswers(t *testing.T) {
	s := &Static{Particle: "ครับ"}
	text, err := s.Generate(context.Background(), chatReq("งานปีนี้เป็นยังไง"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasSuffix(text, "ครับ") {
		t.Fatalf("text %q missing persona particle", text)
	}
}
