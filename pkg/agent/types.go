package agent

import (
	"net/http"

	e "nuclight.org/redirect-tg-bot/pkg/entities"
)

type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

type getEntityRequest struct {
	Reference string `json:"reference"`
}

type joinPublicRequest struct {
	Username string `json:"username"`
}

type joinPrivateRequest struct {
	Hash string `json:"hash"`
}

type entityPayload struct {
	ChatID string `json:"chat_id"`
	Type   string `json:"type"`
	Title  string `json:"title"`
}

// response is the uniform agent answer: on failure Error is set, on success
// it is empty and Entity is populated for lookups (null for an unjoined
// private invite).
type response struct {
	Entity *entityPayload `json:"entity,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func (p *entityPayload) toEntity() *e.Entity {
	if p == nil {
		return nil
	}

	return &e.Entity{
		ChatID: p.ChatID,
		Type:   e.EntityType(p.Type),
		Title:  p.Title,
	}
}

// Error is a failure the agent itself signalled, as opposed to a transport
// failure reaching it. Message is the agent's own error string.
type Error struct {
	Message string
}

func (err *Error) Error() string {
	return err.Message
}
