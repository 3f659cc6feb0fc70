package entities

// EntityType is the kind of a resolved messaging target as reported by the
// forwarding agent.
type EntityType string

const (
	// EntityTypeUser is a one-to-one peer. Joining it goes through a
	// different agent path than groups and channels.
	EntityTypeUser EntityType = "user"

	// EntityTypeGroup is a basic or super group
	EntityTypeGroup EntityType = "group"

	// EntityTypeChannel is a broadcast channel
	EntityTypeChannel EntityType = "channel"
)

// Entity is a resolved messaging target. It is a snapshot taken during one
// workflow invocation and is never stored as-is.
type Entity struct {
	ChatID string
	Type   EntityType
	Title  string
}

// Resolved reports whether the entity carries a usable chat id.
func (e *Entity) Resolved() bool {
	return e != nil && e.ChatID != ""
}
