package notification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"momentum-scalper/internal/model"
)

func TestTelegramNotifier_Send(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("bot-token-1", "chat-42")
	n.apiBase = srv.URL

	alert := OrderAlert(model.OrderInstruction{
		NSESymbol:       "RELIANCE",
		Instrument:      "NSE-RELIANCE",
		Score:           91.5,
		BuyerControlPct: 62.5,
		EntryPrice:      104.5,
		TakeProfitPrice: 106.59,
		StopLossPrice:   102.41,
	})
	if err := n.Send(context.Background(), alert); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotPath != "/botbot-token-1/sendMessage" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotBody["chat_id"] != "chat-42" {
		t.Errorf("chat_id = %v", gotBody["chat_id"])
	}
	if gotBody["parse_mode"] != "MarkdownV2" {
		t.Errorf("parse_mode = %v", gotBody["parse_mode"])
	}
	text, _ := gotBody["text"].(string)
	if !strings.Contains(text, "Order placed: RELIANCE") {
		t.Errorf("text missing title: %q", text)
	}
	// MarkdownV2 requires the dots in prices escaped.
	if !strings.Contains(text, `104\.50`) {
		t.Errorf("text not MarkdownV2-escaped: %q", text)
	}
}

func TestTelegramNotifier_SendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("tok", "chat")
	n.apiBase = srv.URL

	err := n.Send(context.Background(), Alert{Level: AlertWarning, Title: "t", Message: "m"})
	if err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestEscapeMarkdown(t *testing.T) {
	cases := []struct{ in, want string }{
		{"plain", "plain"},
		{"a.b", `a\.b`},
		{"x_y*z", `x\_y\*z`},
		{"(1+2)=3", `\(1\+2\)\=3`},
	}
	for _, tc := range cases {
		if got := escapeMarkdown(tc.in); got != tc.want {
			t.Errorf("escapeMarkdown(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
