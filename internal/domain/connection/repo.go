package connection

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, c *Connection) error
	GetByID(ctx context.Context, id int64) (*Connection, error)
	// GetByIDForReceiver returns the non-deleted connection only when
	// receiverID matches; otherwise a not-found error.
	GetByIDForReceiver(ctx context.Context, id, receiverID int64) (*Connection, error)
	ExistsBetween(ctx context.Context, senderID, receiverID int64) (bool, error)
	Update(ctx context.Context, c *Connection) error
	// ListSent lists connections where professionalID is the sender. A nil
	// blocked filter returns every status; otherwise rows with
	// is_rejected == *blocked.
	ListSent(ctx context.Context, professionalID int64, blocked *bool) ([]*View, error)
	// ListReceived is the inverse direction.
	ListReceived(ctx context.Context, professionalID int64, blocked *bool) ([]*View, error)
}
