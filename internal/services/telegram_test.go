package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestTelegramSend(t *testing.T) {
	t.Run("sends HTML message and returns message id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}

			var payload sendMessageRequest
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("failed to decode payload: %v", err)
			}
			if payload.ChatID != 123456789 {
				t.Errorf("expected chat id 123456789, got %d", payload.ChatID)
			}
			if payload.ParseMode != "HTML" {
				t.Errorf("expected HTML parse mode, got %s", payload.ParseMode)
			}
			if !payload.DisableWebPagePreview {
				t.Error("expected web page preview disabled")
			}

			w.Write([]byte(`{"ok": true, "result": {"message_id": 77}}`))
		}))
		defer server.Close()

		svc, err := NewTelegramService("test-token", 5*time.Second, 1)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}
		svc.SetBaseURL(server.URL)

		messageID, err := svc.Send(context.Background(), 123456789, "<b>hello</b>")
		if err != nil {
			t.Fatalf("send failed: %v", err)
		}
		if messageID != 77 {
			t.Errorf("expected message id 77, got %d", messageID)
		}
	})

	t.Run("retries transient failures", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.Write([]byte(`{"ok": false, "description": "Too Many Requests"}`))
				return
			}
			w.Write([]byte(`{"ok": true, "result": {"message_id": 5}}`))
		}))
		defer server.Close()

		svc, err := NewTelegramService("test-token", 5*time.Second, 3)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}
		svc.SetBaseURL(server.URL)

		messageID, err := svc.Send(context.Background(), 1, "retry me")
		if err != nil {
			t.Fatalf("send failed after retry: %v", err)
		}
		if messageID != 5 {
			t.Errorf("expected message id 5, got %d", messageID)
		}
		if calls.Load() != 2 {
			t.Errorf("expected 2 calls, got %d", calls.Load())
		}
	})

	t.Run("surfaces API errors after retries exhausted", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"ok": false, "description": "chat not found"}`))
		}))
		defer server.Close()

		svc, err := NewTelegramService("test-token", 5*time.Second, 2)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}
		svc.SetBaseURL(server.URL)

		if _, err := svc.Send(context.Background(), 1, "nope"); err == nil {
			t.Error("expected error for failed send")
		}
	})
}

func TestTelegramHealthy(t *testing.T) {
	t.Run("ok response passes", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasSuffix(r.URL.Path, "/getMe") {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			w.Write([]byte(`{"ok": true, "result": {"id": 1, "is_bot": true}}`))
		}))
		defer server.Close()

		svc, err := NewTelegramService("test-token", 5*time.Second, 1)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}
		svc.SetBaseURL(server.URL)

		if err := svc.Healthy(context.Background()); err != nil {
			t.Errorf("expected healthy, got: %v", err)
		}
	})

	t.Run("bad token fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"ok": false, "description": "Unauthorized"}`))
		}))
		defer server.Close()

		svc, err := NewTelegramService("bad-token", 5*time.Second, 1)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}
		svc.SetBaseURL(server.URL)

		if err := svc.Healthy(context.Background()); err == nil {
			t.Error("expected error for unauthorized token")
		}
	})
}

func TestNewTelegramService(t *testing.T) {
	if _, err := NewTelegramService("", time.Second, 1); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestMockNotifier(t *testing.T) {
	m := NewMockNotifier()

	first, err := m.Send(context.Background(), 1, "a")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	second, err := m.Send(context.Background(), 1, "b")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if second != first+1 {
		t.Errorf("expected incrementing message ids, got %d then %d", first, second)
	}
	if err := m.Healthy(context.Background()); err != nil {
		t.Errorf("mock notifier should be healthy: %v", err)
	}
}
