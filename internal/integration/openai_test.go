package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewOpenAIClient_Validation(t *testing.T) {
	if _, err := NewOpenAIClient(OpenAIConfig{}); err == nil {
		t.Error("empty API key should fail")
	}
	if _, err := NewOpenAIClient(OpenAIConfig{APIKey: "sk-test"}); err != nil {
		t.Errorf("key alone should be enough: %v", err)
	}
}

func TestGenerate_Success(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "  the answer  "}},
			},
			"usage": map[string]any{"total_tokens": 123},
		})
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(OpenAIConfig{
		APIBase:     srv.URL,
		APIKey:      "sk-test",
		Model:       "gpt-3.5-turbo",
		MaxTokens:   3000,
		Temperature: 0.3,
		Timeout:     5 * time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := client.Generate(context.Background(), []ChatMessage{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "hi"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Content != "the answer" {
		t.Errorf("content should be trimmed, got %q", res.Content)
	}
	if res.TokensUsed != 123 {
		t.Errorf("expected 123 tokens, got %d", res.TokensUsed)
	}
	if res.Model != "gpt-3.5-turbo" {
		t.Errorf("unexpected model %q", res.Model)
	}

	if gotAuth != "Bearer sk-test" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if gotBody["model"] != "gpt-3.5-turbo" || gotBody["max_tokens"] != float64(3000) || gotBody["temperature"] != 0.3 {
		t.Errorf("unexpected request body %v", gotBody)
	}
}

func TestGenerate_HTTPErrorCarriesAPIMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limit exceeded"},
		})
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(OpenAIConfig{APIBase: srv.URL, APIKey: "sk-test"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.Generate(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}})
	if err == nil || !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Errorf("error should carry status and API message, got %v", err)
	}
}

func TestGenerate_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(OpenAIConfig{APIBase: srv.URL, APIKey: "sk-test"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.Generate(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}})
	if err == nil || !strings.Contains(err.Error(), "no choices") {
		t.Errorf("expected no-choices error, got %v", err)
	}
}

func TestGenerate_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server watches the connection and cancels
		// r.Context() when the client disconnects; otherwise Close deadlocks.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(OpenAIConfig{APIBase: srv.URL, APIKey: "sk-test"})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.Generate(ctx, []ChatMessage{{Role: "user", Content: "hi"}}); err == nil {
		t.Error("expected error on cancelled context")
	}
}
