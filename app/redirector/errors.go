package redirector

import (
	"errors"
	"fmt"
)

// userError marks errors whose text is safe to send back to the sender.
type userError interface {
	error
	userFacing()
}

// UserMessage maps an AddRedirection failure to the short string replied to
// the sender. Errors outside the known taxonomy get a generic message so
// internal details never leak into chat.
func UserMessage(err error) string {
	var ue userError
	if errors.As(err, &ue) {
		return ue.Error()
	}

	return "Something went wrong, please try again later"
}

type InvalidFormatError struct {
	Reference string
}

func (err *InvalidFormatError) Error() string {
	return fmt.Sprintf(
		"%q is not a valid reference, use @username, t.me/joinchat/<hash> or https://t.me/joinchat/<hash>",
		err.Reference,
	)
}

func (*InvalidFormatError) userFacing() {}

type UnregisteredUserError struct{}

func (err *UnregisteredUserError) Error() string {
	return "You are not registered, send /start first"
}

func (*UnregisteredUserError) userFacing() {}

type QuotaExceededError struct {
	Limit int
}

func (err *QuotaExceededError) Error() string {
	return fmt.Sprintf("You have reached the limit of %d redirections", err.Limit)
}

func (*QuotaExceededError) userFacing() {}

// JoinError carries the forwarding agent's own error message for a failed
// join attempt.
type JoinError struct {
	Reference string
	Message   string
}

func (err *JoinError) Error() string {
	return fmt.Sprintf("Could not join %s: %s", err.Reference, err.Message)
}

func (*JoinError) userFacing() {}

type DuplicateRedirectionError struct {
	ID int64
}

func (err *DuplicateRedirectionError) Error() string {
	return fmt.Sprintf("This redirection already exists (#%d)", err.ID)
}

func (*DuplicateRedirectionError) userFacing() {}

type CircularRedirectionError struct {
	ID int64
}

func (err *CircularRedirectionError) Error() string {
	return fmt.Sprintf(
		"The reverse redirection #%d already exists, circular redirections are not allowed",
		err.ID,
	)
}

func (*CircularRedirectionError) userFacing() {}
