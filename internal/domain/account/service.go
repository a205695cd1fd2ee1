package account

import (
	"context"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mydrreferral/mydrreferral/internal/platform/apperr"
	"github.com/mydrreferral/mydrreferral/internal/platform/auth"
	"github.com/mydrreferral/mydrreferral/internal/platform/db"
	"github.com/mydrreferral/mydrreferral/internal/platform/notification"
)

// Notifier sends templated notifications. Satisfied by *notification.Manager.
type Notifier interface {
	SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*notification.Notification, error)
}

type Service struct {
	repo     ProfessionalRepository
	issuer   *auth.TokenIssuer
	notifier Notifier
	logger   zerolog.Logger
}

func NewService(repo ProfessionalRepository, issuer *auth.TokenIssuer, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{repo: repo, issuer: issuer, notifier: notifier, logger: logger}
}

// RegisterInput is the payload for creating a professional account.
type RegisterInput struct {
	Role        string  `json:"role"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	Mobile      *string `json:"mobile"`
	ClinicName  *string `json:"clinicName"`
	Specialty   *string `json:"specialty"`
	AddressLine *string `json:"addressLine"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	PostalCode  *string `json:"postalCode"`
}

func (s *Service) Register(ctx context.Context, in *RegisterInput) (*Professional, error) {
	if in == nil {
		return nil, apperr.Validation("request body is required")
	}
	if !validRoles[in.Role] {
		return nil, apperr.Validation("role must be doctor, lab, or agent")
	}
	if strings.TrimSpace(in.FirstName) == "" {
		return nil, apperr.Validation("first name is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, apperr.Validation("a valid email address is required")
	}
	if len(in.Password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}

	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperr.Duplicate("an account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Persistence(err)
	}

	p := &Professional{
		Role:         in.Role,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
		Mobile:       in.Mobile,
		ClinicName:   in.ClinicName,
		Specialty:    in.Specialty,
		AddressLine:  in.AddressLine,
		City:         in.City,
		State:        in.State,
		PostalCode:   in.PostalCode,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperr.Duplicate("an account with this email already exists")
		}
		return nil, apperr.Persistence(err)
	}

	if s.notifier != nil {
		// Welcome mail is best-effort; registration already committed.
		if _, err := s.notifier.SendFromTemplate(ctx, "welcome",
			map[string]string{"name": p.FullName(), "role": p.Role}, p.Email); err != nil {
			s.logger.Warn().Err(err).Str("email", p.Email).Msg("welcome mail failed")
		}
	}

	return p, nil
}

// Login verifies credentials and returns a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Professional, error) {
	if s.issuer == nil {
		// External auth mode: tokens come from the identity provider.
		return "", nil, apperr.Validation("local login is disabled; authenticate with your identity provider")
	}
	if email == "" || password == "" {
		return "", nil, apperr.Validation("email and password are required")
	}

	p, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if db.IsNotFound(err) {
			return "", nil, apperr.Validation("invalid email or password")
		}
		return "", nil, apperr.Persistence(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperr.Validation("invalid email or password")
	}

	token, err := s.issuer.Issue(p.ID, p.Role)
	if err != nil {
		return "", nil, apperr.Persistence(err)
	}
	return token, p, nil
}

func (s *Service) Profile(ctx context.Context, professionalID int64) (*Professional, error) {
	p, err := s.repo.GetByID(ctx, professionalID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, apperr.NotFound("profile not found")
		}
		return nil, apperr.Persistence(err)
	}
	return p, nil
}

// ProfileUpdate carries the mutable profile fields.
type ProfileUpdate struct {
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Mobile      *string `json:"mobile"`
	ClinicName  *string `json:"clinicName"`
	Specialty   *string `json:"specialty"`
	AddressLine *string `json:"addressLine"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	PostalCode  *string `json:"postalCode"`
}

func (s *Service) UpdateProfile(ctx context.Context, professionalID int64, in *ProfileUpdate) (*Professional, error) {
	if in == nil {
		return nil, apperr.Validation("request body is required")
	}
	if strings.TrimSpace(in.FirstName) == "" {
		return nil, apperr.Validation("first name is required")
	}

	p, err := s.Profile(ctx, professionalID)
	if err != nil {
		return nil, err
	}

	p.FirstName = strings.TrimSpace(in.FirstName)
	p.LastName = strings.TrimSpace(in.LastName)
	p.Mobile = in.Mobile
	p.ClinicName = in.ClinicName
	p.Specialty = in.Specialty
	p.AddressLine = in.AddressLine
	p.City = in.City
	p.State = in.State
	p.PostalCode = in.PostalCode

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, apperr.Persistence(err)
	}
	return p, nil
}

// SearchDirectory lists professionals the caller could connect with.
func (s *Service) SearchDirectory(ctx context.Context, callerID int64, query, role string, limit, offset int) ([]*Professional, int, error) {
	if role != "" && !validRoles[role] {
		return nil, 0, apperr.Validation("role must be doctor, lab, or agent")
	}
	items, total, err := s.repo.Search(ctx, query, role, callerID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Persistence(err)
	}
	return items, total, nil
}
