package events

import (
	"context"
	"time"
)

// Event is published for every registered vote.
type Event struct {
	Index     int       `json:"index"`
	Artist    string    `json:"artista"`
	Album     string    `json:"album"`
	Votes     int       `json:"votos"`
	Session   string    `json:"session"`
	Timestamp time.Time `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop discards every event.
type Nop struct {
}

func (Nop) Publish(ctx context.Context, event Event) error {
	return nil
}

func (Nop) Close() error {
	return nil
}
