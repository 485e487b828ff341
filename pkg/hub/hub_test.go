package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := New("test")
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

func attach(t *testing.T, h *Hub, buffer int) *Client {
	t.Helper()
	c := &Client{hub: h, send: make(chan []byte, buffer)}
	h.register <- c
	return c
}

func TestBroadcastReachesAllClients(t *testing.T) {
	h := startHub(t)
	a := attach(t, h, 4)
	b := attach(t, h, 4)

	if err := h.BroadcastEvent(Event{Type: EventAnalysis, SessionID: "s1"}); err != nil {
		t.Fatalf("BroadcastEvent failed: %v", err)
	}

	for _, c := range []*Client{a, b} {
		select {
		case data := <-c.send:
			var ev Event
			if err := json.Unmarshal(data, &ev); err != nil {
				t.Fatalf("Broadcast payload is not JSON: %v", err)
			}
			if ev.Type != EventAnalysis || ev.SessionID != "s1" {
				t.Errorf("Unexpected event: %+v", ev)
			}
			if ev.Timestamp.IsZero() {
				t.Error("Expected timestamp to be stamped")
			}
		case <-time.After(time.Second):
			t.Fatal("Client did not receive broadcast")
		}
	}
}

func TestSlowClientDropped(t *testing.T) {
	h := startHub(t)
	slow := attach(t, h, 1)

	// First event fills the buffer, second forces the drop.
	h.BroadcastEvent(Event{Type: EventAlert})
	h.BroadcastEvent(Event{Type: EventAlert})

	deadline := time.After(time.Second)
	for h.ClientCount() != 0 {
		select {
		case <-deadline:
			t.Fatalf("Expected slow client to be dropped, count=%d", h.ClientCount())
		case <-time.After(5 * time.Millisecond):
		}
	}

	// Channel is closed once dropped.
	<-slow.send
	if _, ok := <-slow.send; ok {
		t.Error("Expected send channel to be closed")
	}
}

func TestUnregister(t *testing.T) {
	h := startHub(t)
	c := attach(t, h, 1)

	for h.ClientCount() != 1 {
		time.Sleep(time.Millisecond)
	}

	h.unregister <- c
	deadline := time.After(time.Second)
	for h.ClientCount() != 0 {
		select {
		case <-deadline:
			t.Fatal("Expected client count 0 after unregister")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestShutdownClosesClients(t *testing.T) {
	h := New("test")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	c := &Client{hub: h, send: make(chan []byte, 1)}
	h.register <- c

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Hub did not stop on context cancellation")
	}
	if _, ok := <-c.send; ok {
		t.Error("Expected client channel closed on shutdown")
	}
}
