package referral

import (
	"context"
)

type Repository interface {
	// CreateWithPatient persists the patient and the referral atomically.
	// On success both IDs and creation timestamps are populated.
	CreateWithPatient(ctx context.Context, p *Patient, r *Referral) error
	// GetByID returns the referral regardless of the deleted flag; callers
	// that must exclude soft-deleted rows use GetActiveByID.
	GetByID(ctx context.Context, id int64) (*Referral, error)
	GetActiveByID(ctx context.Context, id int64) (*Referral, error)
	Update(ctx context.Context, r *Referral) error
	// ListSent lists referrals on connections where professionalID is the
	// sender; ListReceived the inverse.
	ListSent(ctx context.Context, professionalID int64) ([]*View, error)
	ListReceived(ctx context.Context, professionalID int64) ([]*View, error)
}
