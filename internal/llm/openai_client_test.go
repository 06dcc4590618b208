// ABOUTME: Tests for the OpenAI sentiment client
// ABOUTME: Points the client at an httptest server speaking the chat completions API
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harper/review-insights/internal/models"
)

func completion(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1714568645,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(body)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewOpenAIClientWithConfig(&ClientConfig{
		APIKey:     "test-key",
		BaseURL:    srv.URL + "/v1",
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewOpenAIClientWithConfig() error = %v", err)
	}
	return c
}

func TestNewOpenAIClient_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIClient(""); err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestClassify(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if req["model"] != DefaultChatModel {
			t.Errorf("model = %v, want %s", req["model"], DefaultChatModel)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completion(`{"label":"negative","score":0.97}`))
	})

	label, score, err := c.Classify(context.Background(), "app keeps crashing")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if label != models.Negative || score != 0.97 {
		t.Errorf("Classify() = %s %v, want NEGATIVE 0.97", label, score)
	}
}

func TestClassify_RetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":{"message":"boom","type":"server_error"}}`)
			return
		}
		fmt.Fprint(w, completion(`{"label":"POSITIVE","score":0.8}`))
	})

	label, _, err := c.Classify(context.Background(), "great")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if label != models.Positive {
		t.Errorf("label = %s, want POSITIVE", label)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestClassify_AuthErrorNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	})

	if _, _, err := c.Classify(context.Background(), "great"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestClassify_RejectsBadAnswers(t *testing.T) {
	answers := []string{
		`{"label":"NEUTRAL","score":0.5}`,
		`{"label":"POSITIVE","score":1.5}`,
		`{"label":""}`,
	}
	for _, answer := range answers {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, completion(answer))
		})
		if _, _, err := c.Classify(context.Background(), "meh"); err == nil {
			t.Errorf("Classify() should reject %s", answer)
		}
	}
}
