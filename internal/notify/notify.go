package notify

import "context"

// Topics carrying change events for the tables the leaderboard depends on.
const (
	TopicLedger = "leaderboard_entries.changed"
	TopicTeams  = "teams.changed"
)

// Operation kinds carried by an Event.
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Event describes a committed change to a watched table. Delivery is
// at-least-once; consumers must treat events as triggers to re-read state,
// not as the state itself.
type Event struct {
	Table string `json:"table"`
	Op    string `json:"op"`
	ID    string `json:"id,omitempty"`
}

// Bus is the change-notification interface. Implementations may be backed by
// an in-process pub/sub, Postgres LISTEN/NOTIFY, or an external broker.
type Bus interface {
	Publish(topic string, ev Event) error
	Subscribe(ctx context.Context, topic string) (<-chan Event, error)
	Close() error
}
