package redirector

import (
	"strings"

	e "nuclight.org/redirect-tg-bot/pkg/entities"
)

const (
	usernamePrefix    = "@"
	invitePrefix      = "t.me/joinchat/"
	inviteHTTPSPrefix = "https://t.me/joinchat/"
)

// Classify turns a raw entity reference into a SourceSpec. Prefixes are
// checked in order and the first match wins: a public @username keeps the
// full reference, an invite link keeps only the hash after the prefix.
// Anything else is rejected.
func Classify(reference string) (e.SourceSpec, error) {
	switch {
	case strings.HasPrefix(reference, usernamePrefix):
		return e.SourceSpec{Username: reference}, nil

	case strings.HasPrefix(reference, invitePrefix):
		return e.SourceSpec{Hash: strings.TrimPrefix(reference, invitePrefix)}, nil

	case strings.HasPrefix(reference, inviteHTTPSPrefix):
		return e.SourceSpec{Hash: strings.TrimPrefix(reference, inviteHTTPSPrefix)}, nil
	}

	return e.SourceSpec{}, &InvalidFormatError{Reference: reference}
}
