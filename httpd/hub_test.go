package httpd

import (
	"context"
	"testing"
)

func TestHubDropsSlowClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	c := &client{hub: hub, send: make(chan []byte, 2)}
	hub.register <- c

	// the fourth broadcast is only received once the third has been delivered
	for i := 0; i < 4; i++ {
		hub.Broadcast([]byte("{}"))
	}

	received := 0
	for range c.send {
		received++
	}

	if received != 2 {
		t.Errorf("Expected slow client to be dropped after 2 messages, got %v", received)
	}
}

func TestHubStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	hub := NewHub()
	stopped := make(chan struct{})

	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	c := &client{hub: hub, send: make(chan []byte, 1)}
	hub.register <- c

	cancel()
	<-stopped

	if _, ok := <-c.send; ok {
		t.Errorf("Expected client channel to be closed when the hub stops")
	}

	// no-ops once the hub has stopped
	hub.Broadcast([]byte("{}"))
	hub.leave(c)

	if _, ok := hub.join(nil); ok {
		t.Errorf("Expected join to fail after the hub has stopped")
	}
}
