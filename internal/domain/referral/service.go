package referral

import (
	"context"
	"strings"
	"time"

	"github.com/mydrreferral/mydrreferral/internal/domain/connection"
	"github.com/mydrreferral/mydrreferral/internal/platform/apperr"
	"github.com/mydrreferral/mydrreferral/internal/platform/auth"
	"github.com/mydrreferral/mydrreferral/internal/platform/db"
)

// ConnectionGetter is the slice of the connection repository the referral
// service needs for ownership checks.
type ConnectionGetter interface {
	GetByID(ctx context.Context, id int64) (*connection.Connection, error)
}

type Service struct {
	repo        Repository
	connections ConnectionGetter
}

func NewService(repo Repository, connections ConnectionGetter) *Service {
	return &Service{repo: repo, connections: connections}
}

type CreateInput struct {
	ConnectionID  int64   `json:"connectionId"`
	PatientName   string  `json:"patientName"`
	PatientMobile *string `json:"patientMobile"`
	PatientEmail  *string `json:"patientEmail"`
	Notes         *string `json:"notes"`
	FeeAmount     int64   `json:"feeAmount"`
}

// Create inserts a patient row and a referral row atomically. Only the
// sender of an accepted connection may refer a patient across it. The
// acceptance timestamp is set at creation time; the accepted flag is not,
// so a fresh referral displays as "Sent".
func (s *Service) Create(ctx context.Context, in *CreateInput) (*Referral, error) {
	if in == nil {
		return nil, apperr.Validation("request body is required")
	}
	if in.ConnectionID <= 0 {
		return nil, apperr.Validation("connection is required")
	}
	if strings.TrimSpace(in.PatientName) == "" {
		return nil, apperr.Validation("patient name is required")
	}
	if in.FeeAmount < 0 {
		return nil, apperr.Validation("fee amount cannot be negative")
	}

	me := auth.ProfessionalIDFromContext(ctx)

	conn, err := s.connections.GetByID(ctx, in.ConnectionID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, apperr.NotFound("Connection not found")
		}
		return nil, apperr.Persistence(err)
	}
	if conn.SenderID != me {
		return nil, apperr.NotFound("Connection not found")
	}
	if !conn.IsAccepted {
		return nil, apperr.Validation("connection is not accepted")
	}

	p := &Patient{
		Name:      strings.TrimSpace(in.PatientName),
		Mobile:    in.PatientMobile,
		Email:     in.PatientEmail,
		CreatedBy: me,
	}
	r := &Referral{
		ConnectionID: in.ConnectionID,
		Notes:        in.Notes,
		FeeAmount:    in.FeeAmount,
		Status:       StatusInitiated,
	}

	if err := s.repo.CreateWithPatient(ctx, p, r); err != nil {
		return nil, apperr.Persistence(err)
	}
	return r, nil
}

// authorize loads the owning connection and confirms the caller is one of
// its two parties.
func (s *Service) authorize(ctx context.Context, r *Referral) error {
	me := auth.ProfessionalIDFromContext(ctx)
	conn, err := s.connections.GetByID(ctx, r.ConnectionID)
	if err != nil {
		if db.IsNotFound(err) {
			return apperr.NotFound("Referral not found")
		}
		return apperr.Persistence(err)
	}
	if conn.SenderID != me && conn.ReceiverID != me {
		return apperr.NotFound("Referral not found")
	}
	return nil
}

// UpdateStatus advances the numeric status column. The column is monotonic:
// moving to a lower value fails with "Invalid Status". Entering InProgress
// also marks the referral accepted and refreshes the acceptance timestamp.
func (s *Service) UpdateStatus(ctx context.Context, referralID int64, code int) error {
	if referralID <= 0 {
		return apperr.Validation("referral is required")
	}
	status := Status(code)
	if !status.Valid() {
		return apperr.Validation("Invalid Status")
	}

	r, err := s.repo.GetActiveByID(ctx, referralID)
	if err != nil {
		if db.IsNotFound(err) {
			return apperr.NotFound("Referral not found")
		}
		return apperr.Persistence(err)
	}
	if err := s.authorize(ctx, r); err != nil {
		return err
	}

	if status < r.Status {
		return apperr.Validation("Invalid Status")
	}

	r.Status = status
	if status == StatusInProgress {
		now := time.Now()
		r.IsAccepted = true
		r.AcceptedDate = &now
	}

	if err := s.repo.Update(ctx, r); err != nil {
		return apperr.Persistence(err)
	}
	return nil
}

// UpdateStatusByToken mutates single timestamp/flag columns keyed by a
// lowercase token. It never consults the numeric status column, so it can
// mark a referral paid regardless of where the numeric lifecycle stands.
// Unknown tokens succeed without touching the row.
func (s *Service) UpdateStatusByToken(ctx context.Context, referralID int64, token string) error {
	r, err := s.repo.GetByID(ctx, referralID)
	if err != nil {
		if db.IsNotFound(err) {
			return apperr.NotFound("Referral not found")
		}
		return apperr.Persistence(err)
	}
	if err := s.authorize(ctx, r); err != nil {
		return err
	}

	now := time.Now()
	switch strings.ToLower(strings.TrimSpace(token)) {
	case TokenPatientVisited:
		r.PatientVisitedDate = &now
	case TokenPaymentPending:
		// Placeholder state: the UI infers it from patientVisitedDate
		// plus the absence of a paymentDate.
		return nil
	case TokenPaid:
		r.PaymentDate = &now
		r.IsPaid = true
	case TokenRejected:
		r.Deleted = true
	default:
		return nil
	}

	if err := s.repo.Update(ctx, r); err != nil {
		return apperr.Persistence(err)
	}
	return nil
}

// SentReferrals lists referrals flowing out of connections the caller
// initiated.
func (s *Service) SentReferrals(ctx context.Context) ([]*View, error) {
	me := auth.ProfessionalIDFromContext(ctx)
	views, err := s.repo.ListSent(ctx, me)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return views, nil
}

// ReceivedReferrals lists referrals flowing into the caller.
func (s *Service) ReceivedReferrals(ctx context.Context) ([]*View, error) {
	me := auth.ProfessionalIDFromContext(ctx)
	views, err := s.repo.ListReceived(ctx, me)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return views, nil
}
