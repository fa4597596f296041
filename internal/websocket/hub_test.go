package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/coder/websocket"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		send: make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(testLogger())

	c1 := mockClient(hub)
	c2 := mockClient(hub)
	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)
	hub.Unregister(c1)
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}
	if _, ok := <-c1.send; ok {
		t.Error("send channel should be closed after unregister")
	}
}

func TestBroadcast(t *testing.T) {
	hub := NewHub(testLogger())

	c1 := mockClient(hub)
	c2 := mockClient(hub)
	hub.Register(c1)
	hub.Register(c2)

	hub.Broadcast(NewMessage(EntityChore, ActionCompleted, 42, map[string]any{"member_id": float64(3)}))

	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			var got Message
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != "chore_completed" || got.Entity != EntityChore || got.ID != 42 {
				t.Errorf("message = %+v", got)
			}
			if got.Extra["member_id"] != float64(3) {
				t.Errorf("extra = %v", got.Extra)
			}
			if got.At.IsZero() {
				t.Error("expected timestamp")
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for message")
		}
	}
}

func TestBroadcastEmptyHub(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Broadcast(NewMessage(EntityChore, ActionCreated, 1, nil))
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(testLogger())
	c := mockClient(hub)
	hub.Register(c)

	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast(NewMessage(EntityChore, ActionUpdated, int64(i), nil))
	}
	hub.Broadcast(NewMessage(EntityChore, ActionUpdated, 999, nil))

	if got := len(c.send); got != sendBufferSize {
		t.Errorf("buffered = %d, want %d", got, sendBufferSize)
	}
	if got := hub.Dropped(); got != 1 {
		t.Errorf("dropped = %d, want 1", got)
	}
}

func TestCloseRejectsNewClients(t *testing.T) {
	hub := NewHub(testLogger())
	c := mockClient(hub)
	hub.Register(c)

	hub.Close()

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients after close, got %d", got)
	}
	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed")
	}
	if hub.Register(mockClient(hub)) {
		t.Error("register after close should fail")
	}
	hub.Unregister(c)
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage(EntityMember, ActionDeleted, 5, nil)
	if msg.Type != "member_deleted" || msg.Entity != "member" || msg.Action != "deleted" || msg.ID != 5 {
		t.Errorf("message = %+v", msg)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(testLogger())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub)
			hub.Register(c)
			hub.Broadcast(NewMessage(EntityChore, ActionUpdated, 0, nil))
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}

func TestHandleWebSocketDelivers(t *testing.T) {
	hub := NewHub(testLogger())
	srv := httptest.NewServer(HandleWebSocket(hub, nil, testLogger()))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Broadcast(NewMessage(EntityReminder, ActionDue, 0, map[string]any{"due": float64(2)}))

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != "reminder_due" || got.Extra["due"] != float64(2) {
		t.Errorf("message = %+v", got)
	}

	hub.Close()
	if _, _, err := conn.Read(ctx); ws.CloseStatus(err) != ws.StatusGoingAway {
		t.Errorf("close status = %v, want going away (err %v)", ws.CloseStatus(err), err)
	}
}

func TestParseEntities(t *testing.T) {
	tests := []struct {
		raw     string
		want    []string
		wantErr bool
	}{
		{"", nil, false},
		{"chore", []string{"chore"}, false},
		{" chore , reminder,chore,", []string{"chore", "reminder"}, false},
		{"chore,grocery", nil, true},
	}
	for _, tt := range tests {
		got, err := ParseEntities(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseEntities(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("ParseEntities(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestBroadcastRespectsSubscription(t *testing.T) {
	hub := NewHub(testLogger())
	everything := mockClient(hub)
	reminders := NewClient(hub, nil, []string{EntityReminder})
	hub.Register(everything)
	hub.Register(reminders)

	hub.Broadcast(NewMessage(EntityChore, ActionCreated, 1, nil))
	hub.Broadcast(NewMessage(EntityReminder, ActionDue, 0, nil))

	if got := len(everything.send); got != 2 {
		t.Errorf("unfiltered client queued %d messages, want 2", got)
	}
	if got := len(reminders.send); got != 1 {
		t.Fatalf("reminder client queued %d messages, want 1", got)
	}
	var msg Message
	if err := json.Unmarshal(<-reminders.send, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != "reminder_due" {
		t.Errorf("type = %q, want reminder_due", msg.Type)
	}
}

func TestHandleWebSocketRejectsUnknownEntity(t *testing.T) {
	hub := NewHub(testLogger())
	srv := httptest.NewServer(HandleWebSocket(hub, nil, testLogger()))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"?entities=weather", nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != 400 {
		t.Errorf("expected 400 response, got %v", resp)
	}
	if hub.ClientCount() != 0 {
		t.Error("rejected client should not register")
	}
}
