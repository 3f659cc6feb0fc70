package entities

import "time"

// UserRecord is a registered bot user. It exists only after the user has
// sent /start. Quota counts the redirections the user has created so far
// and is incremented together with every accepted redirection.
type UserRecord struct {
	ID        string
	Premium   bool
	Quota     int
	CreatedAt time.Time
}
