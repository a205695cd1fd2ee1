package account

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/mydrreferral/mydrreferral/internal/platform/apperr"
	"github.com/mydrreferral/mydrreferral/internal/platform/auth"
	"github.com/mydrreferral/mydrreferral/internal/platform/notification"
)

type mockRepo struct {
	professionals map[int64]*Professional
	nextID        int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{professionals: make(map[int64]*Professional), nextID: 1}
}

func (m *mockRepo) Create(ctx context.Context, p *Professional) error {
	p.ID = m.nextID
	m.nextID++
	cp := *p
	m.professionals[p.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id int64) (*Professional, error) {
	p, ok := m.professionals[id]
	if !ok || p.Deleted {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) GetByEmail(ctx context.Context, email string) (*Professional, error) {
	for _, p := range m.professionals {
		if !p.Deleted && strings.EqualFold(p.Email, email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockRepo) Update(ctx context.Context, p *Professional) error {
	cp := *p
	m.professionals[p.ID] = &cp
	return nil
}

func (m *mockRepo) Search(ctx context.Context, query, role string, excludeID int64, limit, offset int) ([]*Professional, int, error) {
	var out []*Professional
	for _, p := range m.professionals {
		if p.Deleted || p.ID == excludeID {
			continue
		}
		if role != "" && p.Role != role {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, len(out), nil
}

type mockNotifier struct {
	sent []string // template ids, in order
}

func (m *mockNotifier) SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*notification.Notification, error) {
	m.sent = append(m.sent, templateID)
	return &notification.Notification{}, nil
}

func newTestService() (*mockRepo, *mockNotifier, *Service) {
	repo := newMockRepo()
	notifier := &mockNotifier{}
	issuer := auth.NewTokenIssuer([]byte("test-secret"), "mydrreferral", "", time.Hour)
	return repo, notifier, NewService(repo, issuer, notifier, zerolog.Nop())
}

func validInput() *RegisterInput {
	return &RegisterInput{
		Role:      RoleDoctor,
		FirstName: "Asha",
		LastName:  "Patel",
		Email:     "asha@example.com",
		Password:  "correct horse",
	}
}

func TestRegister(t *testing.T) {
	repo, notifier, svc := newTestService()

	p, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if p.ID == 0 {
		t.Error("id not assigned")
	}
	if p.Email != "asha@example.com" {
		t.Errorf("email = %q", p.Email)
	}
	if p.PasswordHash == "" || p.PasswordHash == "correct horse" {
		t.Error("password must be stored hashed")
	}
	if len(repo.professionals) != 1 {
		t.Fatalf("professionals = %d, want 1", len(repo.professionals))
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != "welcome" {
		t.Errorf("welcome mail not sent: %v", notifier.sent)
	}
}

func TestRegisterValidation(t *testing.T) {
	_, _, svc := newTestService()

	cases := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"bad role", func(in *RegisterInput) { in.Role = "pharmacist" }},
		{"empty first name", func(in *RegisterInput) { in.FirstName = "  " }},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"short password", func(in *RegisterInput) { in.Password = "short" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(in)
			_, err := svc.Register(context.Background(), in)
			if apperr.KindOf(err) != apperr.KindValidation {
				t.Errorf("kind = %v, want validation", apperr.KindOf(err))
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	_, _, svc := newTestService()

	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("first register: %v", err)
	}
	in := validInput()
	in.Email = "ASHA@example.com" // lookup is case-insensitive
	_, err := svc.Register(context.Background(), in)
	if apperr.KindOf(err) != apperr.KindDuplicate {
		t.Fatalf("kind = %v, want duplicate", apperr.KindOf(err))
	}
}

func TestLoginRoundTrip(t *testing.T) {
	_, _, svc := newTestService()
	registered, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	token, p, err := svc.Login(context.Background(), "asha@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Error("empty token")
	}
	if p.ID != registered.ID {
		t.Errorf("id = %d, want %d", p.ID, registered.ID)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	_, _, svc := newTestService()
	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, err := svc.Login(context.Background(), "asha@example.com", "wrong password")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("wrong password: kind = %v, want validation", apperr.KindOf(err))
	}
	if apperr.Message(err) != "invalid email or password" {
		t.Errorf("message = %q", apperr.Message(err))
	}

	// Unknown account must be indistinguishable from a wrong password.
	_, _, err = svc.Login(context.Background(), "nobody@example.com", "correct horse")
	if apperr.Message(err) != "invalid email or password" {
		t.Errorf("unknown email message = %q", apperr.Message(err))
	}
}

func TestUpdateProfile(t *testing.T) {
	_, _, svc := newTestService()
	registered, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	clinic := "City Lab"
	p, err := svc.UpdateProfile(context.Background(), registered.ID, &ProfileUpdate{
		FirstName:  "Asha",
		LastName:   "Patel-Shah",
		ClinicName: &clinic,
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if p.LastName != "Patel-Shah" || p.ClinicName == nil || *p.ClinicName != "City Lab" {
		t.Errorf("profile = %+v", p)
	}

	_, err = svc.UpdateProfile(context.Background(), registered.ID, &ProfileUpdate{FirstName: ""})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("empty first name: kind = %v, want validation", apperr.KindOf(err))
	}

	_, err = svc.UpdateProfile(context.Background(), 99, &ProfileUpdate{FirstName: "X"})
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("missing profile: kind = %v, want not found", apperr.KindOf(err))
	}
}

func TestSearchDirectory(t *testing.T) {
	_, _, svc := newTestService()

	in := validInput()
	caller, _ := svc.Register(context.Background(), in)

	other := validInput()
	other.Email = "lab@example.com"
	other.Role = RoleLab
	if _, err := svc.Register(context.Background(), other); err != nil {
		t.Fatalf("register lab: %v", err)
	}

	items, total, err := svc.SearchDirectory(context.Background(), caller.ID, "", "", 20, 0)
	if err != nil {
		t.Fatalf("SearchDirectory: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("total = %d, items = %d; caller must be excluded", total, len(items))
	}
	if items[0].Role != RoleLab {
		t.Errorf("role = %q", items[0].Role)
	}

	_, _, err = svc.SearchDirectory(context.Background(), caller.ID, "", "alien", 20, 0)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("bad role: kind = %v, want validation", apperr.KindOf(err))
	}
}
