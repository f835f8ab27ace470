// Package queue defines message payloads exchanged over the message broker
// and the RabbitMQ publisher and consumer that carry them.
package queue

import "time"

// DefaultQueue is the durable queue content events are routed to.
const DefaultQueue = "content.events"

// Event types.
const (
	ContentCreated = "content.created"
	ContentUpdated = "content.updated"
	ContentDeleted = "content.deleted"
	ChapterCreated = "chapter.created"
	ChapterUpdated = "chapter.updated"
	ChapterDeleted = "chapter.deleted"
)

// ContentEvent is published after a content or chapter mutation commits.
// It carries identifiers only; consumers that need the full record read it
// from the API.
type ContentEvent struct {
	Type       string    `json:"type"`
	ContentID  uint64    `json:"content_id"`
	ChapterID  uint64    `json:"chapter_id,omitempty"`
	ActorID    uint64    `json:"actor_id,omitempty"`    // 0 for admin-gated deletes
	OwnerBound bool      `json:"owner_bound,omitempty"` // the mutation bound an unowned item to the actor
	OccurredAt time.Time `json:"occurred_at"`
}
