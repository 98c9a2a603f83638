package fortune

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"server/internal/domain"
)

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization = %q", got)
		}
		var req openAIChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(req.Messages) != 3 {
			t.Fatalf("messages = %d, want system + 2 history", len(req.Messages))
		}
		if req.Messages[0].Role != "system" || req.Messages[2].Role != "assistant" {
			t.Errorf("roles = %s/%s/%s", req.Messages[0].Role, req.Messages[1].Role, req.Messages[2].Role)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "ดวงดีมากค่ะ"}}},
		})
	}))
	defer srv.Close()

	gen := NewOpenAI(OpenAIOptions{APIKey: "sk-test", BaseURL: srv.URL})
	text, err := gen.Generate(context.Background(), Request{
		System: "คุณคือหมอดู",
		History: []domain.ChatMessage{
			{Role: domain.RoleUser, Text: "ขอดูดวงความรัก"},
			{Role: domain.RoleModel, Text: "ได้เลยค่ะ"},
		},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "ดวงดีมากค่ะ" {
		t.Fatalf("text = %q", text)
	}
}

func TestOpenAIGenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `{}`, nil},
		{"empty choices", http.StatusOK, `{"choices":[]}`, ErrEmptyReply},
		{"blank content", http.StatusOK, `{"choices":[{"message":{"content":"  "}}]}`, ErrEmptyReply},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			gen := NewOpenAI(OpenAIOptions{APIKey: "sk-test", BaseURL: srv.URL})
			_, err := gen.Generate(context.Background(), Request{History: []domain.ChatMessage{{Role: domain.RoleUser, Text: "ถาม"}}})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestOpenAIMissingKey(t *testing.T) {
	gen := NewOpenAI(OpenAIOptions{})
	if _, err := gen.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error without api key")
	}
}
