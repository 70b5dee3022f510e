package stream

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Garsondee/Companion-Sense/internal/companion"
)

func dial(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h.Handler())
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("observer never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func TestHub_BroadcastsStateChange(t *testing.T) {
	h := NewHub(nil)
	conn := dial(t, h)

	h.PublishState(companion.StateChange{
		Agent:  3,
		From:   companion.StateFollow,
		To:     companion.StateCombat,
		Reason: "hostile spotted",
		Time:   1.5,
	})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Type != "state_change" || ev.Agent != 3 || ev.From != "follow" || ev.To != "combat" || ev.Time != 1.5 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestHub_CloseDisconnectsObservers(t *testing.T) {
	h := NewHub(nil)
	conn := dial(t, h)
	h.Close()
	if h.Clients() != 0 {
		t.Fatalf("expected no clients after close, got %d", h.Clients())
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected the connection to close")
	}
	if err := h.Publish(Event{Type: "noop"}); err != nil {
		t.Fatalf("publish after close: %v", err)
	}
}

func TestHub_DropsForSlowObserver(t *testing.T) {
	h := NewHub(nil)
	_, ch, ok := h.register()
	if !ok {
		t.Fatal("register failed")
	}
	for i := 0; i < clientBuffer+3; i++ {
		if err := h.Publish(Event{Type: "tick"}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	if len(ch) != clientBuffer || h.Dropped.Load() != 3 {
		t.Fatalf("expected full buffer and 3 drops, got len=%d dropped=%d", len(ch), h.Dropped.Load())
	}
}

func TestHub_PingsKeepIdleObserverConnected(t *testing.T) {
	h := NewHub(nil)
	h.pingEvery = 20 * time.Millisecond
	h.readWait = 100 * time.Millisecond
	conn := dial(t, h)

	// The client answers pings only while it reads.
	msgs := make(chan []byte, 1)
	go func() {
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				close(msgs)
				return
			}
			msgs <- b
		}
	}()

	time.Sleep(5 * h.readWait)
	if h.Clients() != 1 {
		t.Fatalf("idle observer was dropped, clients=%d", h.Clients())
	}
	if err := h.Publish(Event{Type: "tick"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case b, ok := <-msgs:
		if !ok || !strings.Contains(string(b), `"tick"`) {
			t.Fatalf("expected the tick event, got %q ok=%v", b, ok)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event after idling")
	}
}
