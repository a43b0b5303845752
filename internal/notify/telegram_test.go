package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewNotifierDisabled(t *testing.T) {
	n := NewNotifier("", "")
	if n.Enabled() {
		t.Fatal("expected disabled notifier with empty credentials")
	}
}

func TestNewNotifierEnabled(t *testing.T) {
	n := NewNotifier("bot123", "chat456")
	if !n.Enabled() {
		t.Fatal("expected enabled notifier with credentials")
	}
}

func TestSendDisabled(t *testing.T) {
	n := NewNotifier("", "")
	if err := n.Send(context.Background(), "test"); err != nil {
		t.Fatalf("disabled send should succeed silently: %v", err)
	}
}

func testNotifier(handler http.HandlerFunc) (*Notifier, *httptest.Server) {
	server := httptest.NewServer(handler)
	n := &Notifier{
		botToken:   "test-token",
		chatID:     "test-chat",
		httpClient: server.Client(),
		enabled:    true,
		baseURL:    server.URL,
	}
	return n, server
}

func okHandler(receivedText *string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*receivedText = r.URL.Query().Get("text")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(map[string]bool{"ok": true}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func TestSendSuccess(t *testing.T) {
	var receivedChatID, receivedText string
	n, server := testNotifier(func(w http.ResponseWriter, r *http.Request) {
		receivedChatID = r.URL.Query().Get("chat_id")
		receivedText = r.URL.Query().Get("text")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(map[string]bool{"ok": true}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	defer server.Close()

	if err := n.Send(context.Background(), "hello world"); err != nil {
		t.Fatalf("send should succeed: %v", err)
	}
	if receivedChatID != "test-chat" {
		t.Errorf("expected chat_id=test-chat, got %s", receivedChatID)
	}
	if receivedText != "hello world" {
		t.Errorf("expected text=hello world, got %s", receivedText)
	}
}

func TestSendServerError(t *testing.T) {
	n, server := testNotifier(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		if err := json.NewEncoder(w).Encode(map[string]string{"description": "bad request"}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	defer server.Close()

	if err := n.Send(context.Background(), "test"); err == nil {
		t.Fatal("expected error for server error response")
	}
}

func TestNotifyMilestoneDisabled(t *testing.T) {
	n := NewNotifier("", "")
	if err := n.NotifyMilestone(context.Background(), "First Contribution", "Make your first deposit"); err != nil {
		t.Fatalf("disabled notify should succeed: %v", err)
	}
}

func TestNotifyMilestone(t *testing.T) {
	var receivedText string
	n, server := testNotifier(okHandler(&receivedText))
	defer server.Close()

	if err := n.NotifyMilestone(context.Background(), "Carbon Reducer I", "200 SOL contributed"); err != nil {
		t.Fatalf("notify milestone: %v", err)
	}
	if !strings.Contains(receivedText, "Carbon Reducer I") {
		t.Errorf("expected milestone title in text, got %q", receivedText)
	}
}

func TestNotifyDeposit(t *testing.T) {
	var receivedText string
	n, server := testNotifier(okHandler(&receivedText))
	defer server.Close()

	if err := n.NotifyDeposit(context.Background(), "2.5", "5ig"); err != nil {
		t.Fatalf("notify deposit: %v", err)
	}
	if !strings.Contains(receivedText, "2.5 SOL") {
		t.Errorf("expected amount in text, got %q", receivedText)
	}
}

func TestNotifyClaimDisabled(t *testing.T) {
	n := NewNotifier("", "")
	if err := n.NotifyClaim(context.Background(), "0.5", "sig"); err != nil {
		t.Fatalf("disabled notify should succeed: %v", err)
	}
}

func TestNotifyPhaseChangeDisabled(t *testing.T) {
	n := NewNotifier("", "")
	if err := n.NotifyPhaseChange(context.Background(), "deposit", "investing", 3); err != nil {
		t.Fatalf("disabled notify should succeed: %v", err)
	}
}
