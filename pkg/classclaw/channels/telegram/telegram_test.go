package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jholhewres/classclaw/pkg/classclaw/channels"
)

func newTestTelegram(t *testing.T, handler http.Handler) *Telegram {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tg := New(Config{Token: "123:test"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	tg.baseURL = srv.URL
	tg.connected.Store(true)
	return tg
}

func TestSendEscapesHTMLEntities(t *testing.T) {
	var got struct {
		ChatID    int64  `json:"chat_id"`
		Text      string `json:"text"`
		ParseMode string `json:"parse_mode"`
	}
	tg := newTestTelegram(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sendMessage" {
			t.Errorf("unexpected API path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))

	err := tg.Send(context.Background(), "42", &channels.OutgoingMessage{
		Content: "Assignment sealed: essay <draft> & notes due 2024-06-07",
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got.ChatID != 42 {
		t.Errorf("chat_id = %d, want 42", got.ChatID)
	}
	if got.ParseMode != "HTML" {
		t.Errorf("parse_mode = %q, want HTML", got.ParseMode)
	}
	want := "Assignment sealed: essay &lt;draft&gt; &amp; notes due 2024-06-07"
	if got.Text != want {
		t.Errorf("text = %q, want escaped %q", got.Text, want)
	}
}

func TestSendSkipsEscapingWithoutHTMLMode(t *testing.T) {
	var got struct {
		Text string `json:"text"`
	}
	tg := newTestTelegram(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	tg.cfg.ParseMode = "Markdown"

	if err := tg.Send(context.Background(), "42", &channels.OutgoingMessage{Content: "a < b"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got.Text != "a < b" {
		t.Errorf("text = %q, want unescaped", got.Text)
	}
}

func TestSendHonorsCallerContext(t *testing.T) {
	tg := newTestTelegram(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only reached if cancellation is ignored; hold until the client
		// gives up so the test can't pass by accident.
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tg.Send(ctx, "42", &channels.OutgoingMessage{Content: "hello"})
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

func TestSendDisconnected(t *testing.T) {
	tg := New(Config{Token: "123:test"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := tg.Send(context.Background(), "42", &channels.OutgoingMessage{Content: "hello"})
	if !errors.Is(err, channels.ErrChannelDisconnected) {
		t.Errorf("expected ErrChannelDisconnected, got %v", err)
	}
}
