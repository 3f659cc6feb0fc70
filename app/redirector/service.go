package redirector

import (
	"context"
	"errors"
	"fmt"

	"nuclight.org/redirect-tg-bot/pkg/agent"
	e "nuclight.org/redirect-tg-bot/pkg/entities"
	"nuclight.org/redirect-tg-bot/pkg/logger"
	"nuclight.org/redirect-tg-bot/pkg/mutex"
)

// Service creates redirections on behalf of registered senders. A new
// redirection goes through a fixed sequence of stages: both references are
// classified, the sender's quota is checked, the agent is resolved and
// joined to the source and then the destination, the sender's existing
// redirections are scanned for duplicate and circular pairs, and finally the
// new link is persisted together with a quota increment. The first failing
// stage aborts the rest.
type Service struct {
	// Log is a logger
	Log logger.Logger

	// QuotaLimit is the number of redirections a non-premium sender may have
	QuotaLimit int

	// Store holds user and redirection records
	Store Store

	// Agent drives the external forwarding account
	Agent Agent

	locks mutex.KeyedMutex
}

// AddRedirection runs the whole workflow for one sender. A nil return means
// the redirection was persisted; any error maps to a reply via UserMessage.
// Joins already performed against the agent are not rolled back when a later
// stage fails, the agent simply stays a member of the joined entity.
func (s *Service) AddRedirection(ctx context.Context, sender, source, destination string) error {
	srcSpec, err := Classify(source)
	if err != nil {
		return err
	}

	dstSpec, err := Classify(destination)
	if err != nil {
		return err
	}

	// Two concurrent calls by the same sender could otherwise both pass the
	// quota and graph checks and persist conflicting links.
	s.locks.Lock(sender)
	defer s.locks.Unlock(sender)

	if err := s.authorize(ctx, sender); err != nil {
		return err
	}

	src, err := s.resolveAndJoin(ctx, source, srcSpec)
	if err != nil {
		return err
	}

	dst, err := s.resolveAndJoin(ctx, destination, dstSpec)
	if err != nil {
		return err
	}

	if err := s.checkGraph(ctx, sender, src, dst); err != nil {
		return err
	}

	return s.persist(ctx, sender, src, dst)
}

// Register makes the sender known to the quota gate. Registering twice is a
// no-op.
func (s *Service) Register(ctx context.Context, sender string) error {
	err := s.Store.SaveUser(ctx, sender)
	if err != nil {
		return fmt.Errorf("saving user: %w", err)
	}

	return nil
}

// List returns the sender's redirections in creation order.
func (s *Service) List(ctx context.Context, sender string) ([]e.Redirection, error) {
	user, err := s.Store.GetUser(ctx, sender)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	if user == nil {
		return nil, &UnregisteredUserError{}
	}

	reds, err := s.Store.GetRedirections(ctx, sender)
	if err != nil {
		return nil, fmt.Errorf("getting redirections: %w", err)
	}

	return reds, nil
}

func (s *Service) authorize(ctx context.Context, sender string) error {
	user, err := s.Store.GetUser(ctx, sender)
	if err != nil {
		return fmt.Errorf("getting user: %w", err)
	}

	if user == nil {
		return &UnregisteredUserError{}
	}

	if !user.Premium && user.Quota >= s.QuotaLimit {
		return &QuotaExceededError{Limit: s.QuotaLimit}
	}

	return nil
}

// resolveAndJoin looks the reference up, joins the agent to it and returns
// the resolved entity. The initial lookup legitimately comes back empty for
// a private invite the agent has not joined yet, so it is repeated after the
// join in that case.
func (s *Service) resolveAndJoin(ctx context.Context, reference string, spec e.SourceSpec) (*e.Entity, error) {
	ent, err := s.Agent.GetEntity(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", reference, err)
	}

	err = s.join(ctx, spec, ent)
	if err != nil {
		var agentErr *agent.Error
		if errors.As(err, &agentErr) {
			return nil, &JoinError{Reference: reference, Message: agentErr.Message}
		}

		return nil, fmt.Errorf("joining %s: %w", reference, err)
	}

	if !ent.Resolved() {
		ent, err = s.Agent.GetEntity(ctx, reference)
		if err != nil {
			return nil, fmt.Errorf("resolving %s after join: %w", reference, err)
		}

		if !ent.Resolved() {
			return nil, fmt.Errorf("entity %s has no chat id after join", reference)
		}
	}

	return ent, nil
}

func (s *Service) join(ctx context.Context, spec e.SourceSpec, ent *e.Entity) error {
	if spec.IsPrivate() {
		return s.Agent.JoinPrivateEntity(ctx, spec.Hash)
	}

	if ent != nil && ent.Type == e.EntityTypeUser {
		return s.Agent.JoinPublicUserEntity(ctx, spec.Username)
	}

	return s.Agent.JoinPublicEntity(ctx, spec.Username)
}

// checkGraph scans the sender's existing redirections in creation order and
// reports the first conflicting record. The exact pair is checked before the
// reversed pair for every record.
func (s *Service) checkGraph(ctx context.Context, sender string, src, dst *e.Entity) error {
	reds, err := s.Store.GetRedirections(ctx, sender)
	if err != nil {
		return fmt.Errorf("getting redirections: %w", err)
	}

	for _, red := range reds {
		if red.Source == src.ChatID && red.Destination == dst.ChatID {
			return &DuplicateRedirectionError{ID: red.ID}
		}

		if red.Source == dst.ChatID && red.Destination == src.ChatID {
			return &CircularRedirectionError{ID: red.ID}
		}
	}

	return nil
}

func (s *Service) persist(ctx context.Context, sender string, src, dst *e.Entity) error {
	id, err := s.Store.SaveRedirection(ctx, sender, src.ChatID, dst.ChatID, src.Title, dst.Title)
	if err != nil {
		return fmt.Errorf("saving redirection: %w", err)
	}

	// The insert and the increment are two separate statements. A failure
	// here leaves the stored link count ahead of the quota counter, which
	// cmd/audit reports.
	err = s.Store.ChangeUserQuota(ctx, sender)
	if err != nil {
		return fmt.Errorf("incrementing quota after redirection %d: %w", id, err)
	}

	s.Log.Info(
		"redirection created",
		"id", id,
		"sender", sender,
		"source", src.ChatID,
		"destination", dst.ChatID,
	)

	return nil
}

type Store interface {
	GetUser(ctx context.Context, id string) (*e.UserRecord, error)
	SaveUser(ctx context.Context, id string) error
	GetRedirections(ctx context.Context, sender string) ([]e.Redirection, error)
	SaveRedirection(ctx context.Context, sender, srcChatID, dstChatID, srcTitle, dstTitle string) (int64, error)
	ChangeUserQuota(ctx context.Context, sender string) error
}

type Agent interface {
	GetEntity(ctx context.Context, reference string) (*e.Entity, error)
	JoinPublicEntity(ctx context.Context, username string) error
	JoinPublicUserEntity(ctx context.Context, username string) error
	JoinPrivateEntity(ctx context.Context, hash string) error
}
