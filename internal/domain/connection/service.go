package connection

import (
	"context"

	"github.com/mydrreferral/mydrreferral/internal/platform/apperr"
	"github.com/mydrreferral/mydrreferral/internal/platform/auth"
	"github.com/mydrreferral/mydrreferral/internal/platform/db"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateRequest opens a pending connection from the authenticated caller to
// receiverID. The sender is always resolved from the context, never the
// payload.
func (s *Service) CreateRequest(ctx context.Context, receiverID int64, note string) error {
	senderID := auth.ProfessionalIDFromContext(ctx)
	if receiverID <= 0 {
		return apperr.Validation("receiver is required")
	}
	if receiverID == senderID {
		return apperr.Validation("cannot send a connection request to yourself")
	}

	exists, err := s.repo.ExistsBetween(ctx, senderID, receiverID)
	if err != nil {
		return apperr.Persistence(err)
	}
	if exists {
		return apperr.Duplicate("Connection Request already sent to selected user")
	}

	c := &Connection{
		SenderID:   senderID,
		ReceiverID: receiverID,
		CreatedBy:  senderID,
	}
	if note != "" {
		c.Note = &note
	}

	if err := s.repo.Create(ctx, c); err != nil {
		// Two identical requests can pass the existence check concurrently;
		// the partial unique index turns the loser into a duplicate.
		if db.IsUniqueViolation(err) {
			return apperr.Duplicate("Connection Request already sent to selected user")
		}
		return apperr.Persistence(err)
	}
	return nil
}

// Respond records the receiver's decision. This is an idempotent flag
// overwrite: accepting sets accepted and clears rejected, rejecting does the
// inverse, and repeated calls simply flip the flags again.
func (s *Service) Respond(ctx context.Context, connectionID int64, isAccepted bool) (string, error) {
	me := auth.ProfessionalIDFromContext(ctx)

	c, err := s.repo.GetByIDForReceiver(ctx, connectionID, me)
	if err != nil {
		if db.IsNotFound(err) {
			return "", apperr.NotFound("Connection request not found")
		}
		return "", apperr.Persistence(err)
	}

	c.IsAccepted = isAccepted
	c.IsRejected = !isAccepted

	if err := s.repo.Update(ctx, c); err != nil {
		return "", apperr.Persistence(err)
	}

	if c.IsAccepted {
		return "Connection Accepted", nil
	}
	return "Connection Rejected", nil
}

// Unblock forces a previously rejected connection back to accepted. Only the
// receiver may unblock, and unblocking an already accepted connection is a
// no-op that still succeeds.
func (s *Service) Unblock(ctx context.Context, connectionID int64) error {
	me := auth.ProfessionalIDFromContext(ctx)

	c, err := s.repo.GetByIDForReceiver(ctx, connectionID, me)
	if err != nil {
		if db.IsNotFound(err) {
			return apperr.NotFound("Connection request not found")
		}
		return apperr.Persistence(err)
	}

	c.IsAccepted = true
	c.IsRejected = false

	if err := s.repo.Update(ctx, c); err != nil {
		return apperr.Persistence(err)
	}
	return nil
}

// MyConnections lists connections the caller initiated. blocked filters on
// the rejected flag; nil returns every status.
func (s *Service) MyConnections(ctx context.Context, blocked *bool) ([]*View, error) {
	me := auth.ProfessionalIDFromContext(ctx)
	views, err := s.repo.ListSent(ctx, me, blocked)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return views, nil
}

// ReceivedRequests lists connections where the caller is the receiver.
func (s *Service) ReceivedRequests(ctx context.Context, blocked *bool) ([]*View, error) {
	me := auth.ProfessionalIDFromContext(ctx)
	views, err := s.repo.ListReceived(ctx, me, blocked)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return views, nil
}
