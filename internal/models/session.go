package models

import (
	"time"

	"github.com/segmentio/ksuid"
)

// SubscriberSession represents an active WebSocket subscription to a
// collection. One session observes exactly one collection and receives a
// full snapshot on every change to it, including its own writes.
type SubscriberSession struct {
	ID           string    `json:"id"`
	Collection   string    `json:"collection"`
	RemoteAddr   string    `json:"remote_addr"`
	ConnectedAt  time.Time `json:"connected_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

func NewSubscriberSession(collection, remoteAddr string) *SubscriberSession {
	return &SubscriberSession{
		ID:           ksuid.New().String(),
		Collection:   collection,
		RemoteAddr:   remoteAddr,
		ConnectedAt:  time.Now(),
		LastActiveAt: time.Now(),
	}
}
