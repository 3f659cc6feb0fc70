package entities

import "time"

// Redirection is a persisted directed link from a source entity to a
// destination entity, owned by a sender. Records are never mutated after
// creation.
type Redirection struct {
	ID               int64
	Sender           string
	Source           string
	Destination      string
	SourceTitle      string
	DestinationTitle string
	CreatedAt        time.Time
}

// SourceSpec is the classified form of a raw entity reference. Exactly one
// field is set: Username for public @references (kept with the leading @),
// Hash for private invite links (the part after the joinchat prefix).
type SourceSpec struct {
	Username string
	Hash     string
}

// IsPrivate reports whether the spec refers to a private invite link.
func (s SourceSpec) IsPrivate() bool {
	return s.Hash != ""
}
