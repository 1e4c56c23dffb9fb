package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"timely-greeter/pkg/greeter"
)

const testToken = "123:secret"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(url string) *Client {
	return New(Options{
		Logger:      testLogger(),
		BaseURL:     url,
		Token:       testToken,
		PollTimeout: time.Second,
		RetryDelay:  time.Millisecond,
	})
}

func TestUpdates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bot"+testToken+"/getUpdates" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("offset"); got != "6" {
			t.Errorf("offset = %q, want 6", got)
		}
		if got := r.URL.Query().Get("timeout"); got != "20" {
			t.Errorf("timeout = %q, want 20", got)
		}
		_, _ = io.WriteString(w, `{"ok":true,"result":[
			{"update_id":6,"message":{"chat":{"id":100},"from":{"username":"alice"},"text":"hello"}},
			{"update_id":7,"message":{"chat":{"id":-200},"from":{"username":"bob"},"sticker":{"file_id":"abc"}}},
			{"update_id":8,"edited_message":{"chat":{"id":100},"text":"edited"}},
			{"update_id":9,"message":{"chat":{"id":300},"photo":[{"file_id":"p"}]}},
			{"update_id":10,"message":{"chat":{"id":400},"location":{"latitude":1}}}
		]}`)
	}))
	defer server.Close()

	updates, err := newTestClient(server.URL).Updates(context.Background(), 6, 20*time.Second)
	if err != nil {
		t.Fatalf("Updates() error = %v", err)
	}
	if len(updates) != 5 {
		t.Fatalf("Updates() returned %d updates, want 5", len(updates))
	}

	first := updates[0]
	if first.ID != 6 || first.Message == nil || first.Message.ChatID != 100 || first.Message.Username != "alice" {
		t.Errorf("first update = %+v", first)
	} else if first.Message.Payload != greeter.Text("hello") {
		t.Errorf("first payload = %#v, want Text(hello)", first.Message.Payload)
	}

	if p := updates[1].Message.Payload; p != (greeter.Other{Kind: "sticker"}) {
		t.Errorf("sticker payload = %#v", p)
	}
	if got := updates[1].Message.Text(); got != greeter.NoMessage {
		t.Errorf("sticker Text() = %q, want %q", got, greeter.NoMessage)
	}
	if updates[2].Message != nil {
		t.Errorf("edited message should carry no Message, got %+v", updates[2].Message)
	}
	if p := updates[3].Message.Payload; p != (greeter.Other{Kind: "photo"}) {
		t.Errorf("photo payload = %#v", p)
	}
	if p := updates[4].Message.Payload; p != (greeter.Other{}) {
		t.Errorf("unknown payload = %#v, want Other{}", p)
	}
}

func TestUpdatesErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "not ok", status: http.StatusOK, body: `{"ok":false,"description":"Conflict"}`},
		{name: "server error", status: http.StatusBadGateway, body: `bad gateway`},
		{name: "malformed", status: http.StatusOK, body: `{"ok":tru`},
		{name: "wrong result type", status: http.StatusOK, body: `{"ok":true,"result":{"update_id":1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			updates, err := newTestClient(server.URL).Updates(context.Background(), 1, time.Second)
			if err == nil {
				t.Fatalf("Updates() = %v, want error", updates)
			}
		})
	}
}

func TestUpdatesEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"ok":true,"result":[]}`)
	}))
	defer server.Close()

	updates, err := newTestClient(server.URL).Updates(context.Background(), 1, time.Second)
	if err != nil {
		t.Fatalf("Updates() error = %v", err)
	}
	if len(updates) != 0 {
		t.Errorf("Updates() = %v, want empty", updates)
	}
}

func TestSend(t *testing.T) {
	tests := []struct {
		send   func(c *Client) error
		want   map[string]any
		method string
	}{
		{
			method: "sendMessage",
			send: func(c *Client) error {
				return c.SendMessage(context.Background(), 42, "Good morning to Berlin!")
			},
			want: map[string]any{"chat_id": float64(42), "text": "Good morning to Berlin!"},
		},
		{
			method: "sendSticker",
			send: func(c *Client) error {
				return c.SendSticker(context.Background(), -7, "sticker-id")
			},
			want: map[string]any{"chat_id": float64(-7), "sticker": "sticker-id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("method = %s, want POST", r.Method)
				}
				if r.URL.Path != "/bot"+testToken+"/"+tt.method {
					t.Errorf("path = %q", r.URL.Path)
				}
				if ct := r.Header.Get("Content-Type"); ct != "application/json" {
					t.Errorf("Content-Type = %q", ct)
				}
				var got map[string]any
				if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
					t.Errorf("decode body: %v", err)
				}
				for k, v := range tt.want {
					if got[k] != v {
						t.Errorf("body[%q] = %v, want %v", k, got[k], v)
					}
				}
				_, _ = io.WriteString(w, `{"ok":true,"result":{}}`)
			}))
			defer server.Close()

			if err := tt.send(newTestClient(server.URL)); err != nil {
				t.Fatalf("send error = %v", err)
			}
		})
	}
}

func TestSendRetries(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantCalls int32
		wantErr   bool
		forbidden bool
	}{
		{name: "recovers from server errors", statuses: []int{500, 502, 200}, wantCalls: 3},
		{name: "gives up after three attempts", statuses: []int{500, 500, 500, 500}, wantCalls: 3, wantErr: true},
		{name: "too many requests is retried", statuses: []int{429, 200}, wantCalls: 2},
		{name: "blocked by user", statuses: []int{403, 200}, wantCalls: 1, wantErr: true, forbidden: true},
		{name: "bad request", statuses: []int{400, 200}, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				n := calls.Add(1)
				status := tt.statuses[min(int(n), len(tt.statuses))-1]
				w.WriteHeader(status)
				if status == http.StatusOK {
					_, _ = io.WriteString(w, `{"ok":true,"result":{}}`)
					return
				}
				_, _ = io.WriteString(w, `{"ok":false,"description":"nope"}`)
			}))
			defer server.Close()

			err := newTestClient(server.URL).SendMessage(context.Background(), 1, "hi")
			if (err != nil) != tt.wantErr {
				t.Fatalf("SendMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("server called %d times, want %d", got, tt.wantCalls)
			}
			if IsForbidden(err) != tt.forbidden {
				t.Errorf("IsForbidden(%v) = %v, want %v", err, IsForbidden(err), tt.forbidden)
			}
		})
	}
}

func TestSendCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := newTestClient(server.URL).SendMessage(ctx, 1, "hi"); err == nil {
		t.Fatal("SendMessage() with cancelled context should fail")
	}
}

func TestTransportErrorHidesToken(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := newTestClient(url)
	if _, err := c.Updates(context.Background(), 1, time.Second); err == nil {
		t.Fatal("Updates() against a closed server should fail")
	} else if strings.Contains(err.Error(), "secret") {
		t.Errorf("Updates() error leaks token: %v", err)
	}

	if err := c.SendMessage(context.Background(), 1, "hi"); err == nil {
		t.Fatal("SendMessage() against a closed server should fail")
	} else if strings.Contains(err.Error(), "secret") {
		t.Errorf("SendMessage() error leaks token: %v", err)
	}
}

func TestAPIError(t *testing.T) {
	err := error(&APIError{Method: "sendMessage", StatusCode: 403, Description: "Forbidden: bot was blocked by the user"})
	if got := err.Error(); got != "sendMessage: HTTP 403: Forbidden: bot was blocked by the user" {
		t.Errorf("Error() = %q", got)
	}
	wrapped := errors.Join(errors.New("context"), err)
	if !IsForbidden(wrapped) {
		t.Error("IsForbidden() should see through wrapping")
	}
	if IsForbidden(errors.New("plain")) {
		t.Error("IsForbidden(plain error) = true")
	}
}

func TestMock(t *testing.T) {
	var m Sender = NewMock(testLogger())
	if err := m.SendMessage(context.Background(), 1, "hi"); err != nil {
		t.Errorf("SendMessage() error = %v", err)
	}
	if err := m.SendSticker(context.Background(), 1, "s"); err != nil {
		t.Errorf("SendSticker() error = %v", err)
	}
}
