package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	e "nuclight.org/redirect-tg-bot/pkg/entities"
)

// Client talks to the forwarding agent's local JSON API. The agent is the
// account that actually joins entities and relays messages; this process
// only instructs it.
type Client struct {
	baseURL    string
	httpClient HTTPClient
}

func NewClient(baseURL string, httpClient HTTPClient) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// GetEntity resolves a raw reference into an entity. It returns (nil, nil)
// when the agent cannot resolve the reference yet, which is the normal case
// for a private invite link the agent has not joined.
func (c *Client) GetEntity(ctx context.Context, reference string) (*e.Entity, error) {
	res, err := c.call(ctx, "getEntity", getEntityRequest{Reference: reference})
	if err != nil {
		return nil, err
	}

	return res.Entity.toEntity(), nil
}

// JoinPublicEntity joins the agent to a public group or channel by username.
func (c *Client) JoinPublicEntity(ctx context.Context, username string) error {
	_, err := c.call(ctx, "joinPublicEntity", joinPublicRequest{Username: username})
	return err
}

// JoinPublicUserEntity opens a dialog with a one-to-one peer by username.
func (c *Client) JoinPublicUserEntity(ctx context.Context, username string) error {
	_, err := c.call(ctx, "joinPublicUserEntity", joinPublicRequest{Username: username})
	return err
}

// JoinPrivateEntity joins the agent to a private group via an invite hash.
func (c *Client) JoinPrivateEntity(ctx context.Context, hash string) error {
	_, err := c.call(ctx, "joinPrivateEntity", joinPrivateRequest{Hash: hash})
	return err
}

func (c *Client) call(ctx context.Context, method string, payload any) (*response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling body: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/"+method,
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("doing request: %w", err)
	}

	defer func() { _ = res.Body.Close() }()
	if res.StatusCode != http.StatusOK {
		resBody, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("unexpected status code: %d: %s", res.StatusCode, resBody)
	}

	body, err = io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var parsed response
	if err = json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if parsed.Error != "" {
		return nil, &Error{Message: parsed.Error}
	}

	return &parsed, nil
}
