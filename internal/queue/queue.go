package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/emrgen/lexicon/internal/model"
)

var DefaultContributionTopic = "lexicon.contributions"

// ContributionQueue fans committed ledger rows out to other systems.
type ContributionQueue interface {
	// Publish appends a committed contribution to the queue.
	Publish(ctx context.Context, c *model.Contribution) error
	Close() error
}

// Event is the wire form of a contribution. Snapshots are not carried,
// consumers read them back through the history API.
type Event struct {
	ID         string           `json:"id"`
	Seq        int64            `json:"seq"`
	Action     model.Action     `json:"action"`
	EntityType model.EntityType `json:"entityType"`
	EntityID   string           `json:"entityId"`
	UserID     string           `json:"userId"`
	Metadata   json.RawMessage  `json:"metadata,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}

func NewEvent(c *model.Contribution) Event {
	e := Event{
		ID:         c.ID,
		Seq:        c.Seq,
		Action:     c.Action,
		EntityType: c.EntityType,
		EntityID:   c.EntityID,
		UserID:     c.UserID,
		CreatedAt:  c.CreatedAt,
	}
	if c.Metadata != "" {
		e.Metadata = json.RawMessage(c.Metadata)
	}
	return e
}

// Key groups the events of one entity on one partition.
func (e Event) Key() string {
	return string(e.EntityType) + ":" + e.EntityID
}

var _ ContributionQueue = Nop{}

type Nop struct{}

func (Nop) Publish(context.Context, *model.Contribution) error { return nil }

func (Nop) Close() error { return nil }
