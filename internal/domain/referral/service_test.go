package referral

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mydrreferral/mydrreferral/internal/domain/connection"
	"github.com/mydrreferral/mydrreferral/internal/platform/apperr"
	"github.com/mydrreferral/mydrreferral/internal/platform/auth"
)

type mockRepo struct {
	patients  map[int64]*Patient
	referrals map[int64]*Referral
	nextID    int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		patients:  make(map[int64]*Patient),
		referrals: make(map[int64]*Referral),
		nextID:    1,
	}
}

func (m *mockRepo) CreateWithPatient(ctx context.Context, p *Patient, r *Referral) error {
	now := time.Now()
	p.ID = m.nextID
	p.CreatedDate = now
	pc := *p
	m.patients[p.ID] = &pc

	r.ID = m.nextID
	r.PatientID = p.ID
	r.CreatedDate = now
	r.AcceptedDate = &now
	rc := *r
	m.referrals[r.ID] = &rc
	m.nextID++
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id int64) (*Referral, error) {
	r, ok := m.referrals[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (m *mockRepo) GetActiveByID(ctx context.Context, id int64) (*Referral, error) {
	r, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Deleted {
		return nil, pgx.ErrNoRows
	}
	return r, nil
}

func (m *mockRepo) Update(ctx context.Context, r *Referral) error {
	cp := *r
	m.referrals[r.ID] = &cp
	return nil
}

func (m *mockRepo) ListSent(ctx context.Context, professionalID int64) ([]*View, error) {
	return nil, nil
}

func (m *mockRepo) ListReceived(ctx context.Context, professionalID int64) ([]*View, error) {
	return nil, nil
}

type mockConnections struct {
	connections map[int64]*connection.Connection
}

func (m *mockConnections) GetByID(ctx context.Context, id int64) (*connection.Connection, error) {
	c, ok := m.connections[id]
	if !ok || c.Deleted {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

// Connection 10: 1 -> 2, accepted. Connection 11: 1 -> 3, still pending.
func fixtures() (*mockRepo, *Service) {
	conns := &mockConnections{connections: map[int64]*connection.Connection{
		10: {ID: 10, SenderID: 1, ReceiverID: 2, IsAccepted: true},
		11: {ID: 11, SenderID: 1, ReceiverID: 3},
	}}
	repo := newMockRepo()
	return repo, NewService(repo, conns)
}

func asUser(id int64) context.Context {
	return auth.WithProfessional(context.Background(), id, "doctor")
}

func TestCreate(t *testing.T) {
	repo, svc := fixtures()

	r, err := svc.Create(asUser(1), &CreateInput{
		ConnectionID: 10,
		PatientName:  "Jane Roe",
		FeeAmount:    500,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.Status != StatusInitiated {
		t.Errorf("status = %d, want %d", r.Status, StatusInitiated)
	}
	if r.AcceptedDate == nil {
		t.Error("acceptedDate should be set at creation")
	}
	if r.IsAccepted {
		t.Error("accepted flag must stay false at creation")
	}
	if r.DisplayStatus() != DisplaySent {
		t.Errorf("display = %q, want %q", r.DisplayStatus(), DisplaySent)
	}
	if len(repo.patients) != 1 {
		t.Fatalf("patients = %d, want 1", len(repo.patients))
	}
	for _, p := range repo.patients {
		if p.Name != "Jane Roe" || p.CreatedBy != 1 {
			t.Errorf("patient = %+v", p)
		}
	}
}

func TestCreateValidation(t *testing.T) {
	_, svc := fixtures()

	cases := []struct {
		name string
		in   *CreateInput
	}{
		{"nil input", nil},
		{"missing connection", &CreateInput{PatientName: "x"}},
		{"missing patient name", &CreateInput{ConnectionID: 10}},
		{"negative fee", &CreateInput{ConnectionID: 10, PatientName: "x", FeeAmount: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(asUser(1), tc.in)
			if apperr.KindOf(err) != apperr.KindValidation {
				t.Errorf("kind = %v, want validation", apperr.KindOf(err))
			}
		})
	}
}

func TestCreateOwnership(t *testing.T) {
	repo, svc := fixtures()

	// Receiver of the connection cannot create referrals on it.
	_, err := svc.Create(asUser(2), &CreateInput{ConnectionID: 10, PatientName: "x"})
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("receiver: kind = %v, want not found", apperr.KindOf(err))
	}

	// Unrelated user gets the same answer.
	_, err = svc.Create(asUser(9), &CreateInput{ConnectionID: 10, PatientName: "x"})
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("stranger: kind = %v, want not found", apperr.KindOf(err))
	}

	// Sender on a connection that was never accepted.
	_, err = svc.Create(asUser(1), &CreateInput{ConnectionID: 11, PatientName: "x"})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("pending: kind = %v, want validation", apperr.KindOf(err))
	}

	// Missing connection id.
	_, err = svc.Create(asUser(1), &CreateInput{ConnectionID: 99, PatientName: "x"})
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("missing: kind = %v, want not found", apperr.KindOf(err))
	}

	if len(repo.referrals) != 0 {
		t.Error("no referral should be persisted on rejected create")
	}
}

func mustCreate(t *testing.T, svc *Service) *Referral {
	t.Helper()
	r, err := svc.Create(asUser(1), &CreateInput{
		ConnectionID: 10,
		PatientName:  "Jane Roe",
		FeeAmount:    500,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return r
}

func TestUpdateStatusAdvance(t *testing.T) {
	repo, svc := fixtures()
	r := mustCreate(t, svc)

	if err := svc.UpdateStatus(asUser(2), r.ID, int(StatusInProgress)); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	got := repo.referrals[r.ID]
	if got.Status != StatusInProgress {
		t.Errorf("status = %d, want %d", got.Status, StatusInProgress)
	}
	if !got.IsAccepted || got.AcceptedDate == nil {
		t.Error("entering InProgress must set accepted and acceptedDate")
	}

	// Same value is allowed; the check is strictly less-than.
	if err := svc.UpdateStatus(asUser(2), r.ID, int(StatusInProgress)); err != nil {
		t.Fatalf("same-value update: %v", err)
	}
}

func TestUpdateStatusRegression(t *testing.T) {
	repo, svc := fixtures()
	r := mustCreate(t, svc)

	if err := svc.UpdateStatus(asUser(2), r.ID, int(StatusPendingPayment)); err != nil {
		t.Fatalf("advance: %v", err)
	}

	err := svc.UpdateStatus(asUser(2), r.ID, int(StatusInProgress))
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("kind = %v, want validation", apperr.KindOf(err))
	}
	if apperr.Message(err) != "Invalid Status" {
		t.Errorf("message = %q, want %q", apperr.Message(err), "Invalid Status")
	}
	if repo.referrals[r.ID].Status != StatusPendingPayment {
		t.Errorf("status changed to %d on rejected regression", repo.referrals[r.ID].Status)
	}
}

func TestUpdateStatusValidation(t *testing.T) {
	_, svc := fixtures()
	r := mustCreate(t, svc)

	if err := svc.UpdateStatus(asUser(1), 0, int(StatusInProgress)); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("id 0: kind = %v, want validation", apperr.KindOf(err))
	}
	if err := svc.UpdateStatus(asUser(1), r.ID, 7); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("code 7: kind = %v, want validation", apperr.KindOf(err))
	}
	if err := svc.UpdateStatus(asUser(1), r.ID, 0); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("code 0: kind = %v, want validation", apperr.KindOf(err))
	}
	if err := svc.UpdateStatus(asUser(1), 99, int(StatusInProgress)); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("missing: kind = %v, want not found", apperr.KindOf(err))
	}
	if err := svc.UpdateStatus(asUser(9), r.ID, int(StatusInProgress)); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("stranger: kind = %v, want not found", apperr.KindOf(err))
	}
}

func TestTokenPaidBypassesNumericStatus(t *testing.T) {
	repo, svc := fixtures()
	r := mustCreate(t, svc)

	// Numeric status is still Initiated(1); the token path does not care.
	if err := svc.UpdateStatusByToken(asUser(2), r.ID, "paid"); err != nil {
		t.Fatalf("UpdateStatusByToken: %v", err)
	}
	got := repo.referrals[r.ID]
	if !got.IsPaid || got.PaymentDate == nil {
		t.Error("paid token must set paid flag and paymentDate")
	}
	if got.Status != StatusInitiated {
		t.Errorf("numeric status = %d, must stay %d", got.Status, StatusInitiated)
	}
	if got.DisplayStatus() != DisplayPaid {
		t.Errorf("display = %q, want %q", got.DisplayStatus(), DisplayPaid)
	}
}

func TestTokenPatientVisited(t *testing.T) {
	repo, svc := fixtures()
	r := mustCreate(t, svc)

	if err := svc.UpdateStatusByToken(asUser(2), r.ID, "patient_visited"); err != nil {
		t.Fatalf("UpdateStatusByToken: %v", err)
	}
	got := repo.referrals[r.ID]
	if got.PatientVisitedDate == nil {
		t.Fatal("patientVisitedDate not set")
	}
	if got.DisplayStatus() != DisplayPatientVisited {
		t.Errorf("display = %q, want %q", got.DisplayStatus(), DisplayPatientVisited)
	}
}

func TestTokenRejected(t *testing.T) {
	repo, svc := fixtures()
	r := mustCreate(t, svc)

	if err := svc.UpdateStatusByToken(asUser(2), r.ID, "rejected"); err != nil {
		t.Fatalf("UpdateStatusByToken: %v", err)
	}
	got := repo.referrals[r.ID]
	if !got.Deleted {
		t.Fatal("rejected token must set the soft-delete flag")
	}
	if got.DisplayStatus() != DisplayRejected {
		t.Errorf("display = %q, want %q", got.DisplayStatus(), DisplayRejected)
	}

	// A payment recorded later outranks the rejection in the display rule.
	if err := svc.UpdateStatusByToken(asUser(2), r.ID, "paid"); err != nil {
		t.Fatalf("paid after rejected: %v", err)
	}
	if repo.referrals[r.ID].DisplayStatus() != DisplayPaid {
		t.Errorf("display = %q, want %q", repo.referrals[r.ID].DisplayStatus(), DisplayPaid)
	}
}

func TestTokenNoOps(t *testing.T) {
	repo, svc := fixtures()
	r := mustCreate(t, svc)
	before := *repo.referrals[r.ID]

	for _, token := range []string{"payment_pending", "garbage", ""} {
		if err := svc.UpdateStatusByToken(asUser(1), r.ID, token); err != nil {
			t.Fatalf("token %q: %v", token, err)
		}
	}
	after := *repo.referrals[r.ID]
	if before != after {
		t.Errorf("no-op tokens mutated the referral: before=%+v after=%+v", before, after)
	}
}

func TestTokenMissingReferral(t *testing.T) {
	_, svc := fixtures()
	err := svc.UpdateStatusByToken(asUser(1), 42, "paid")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("kind = %v, want not found", apperr.KindOf(err))
	}
}

func TestTokenAuthorization(t *testing.T) {
	_, svc := fixtures()
	r := mustCreate(t, svc)

	err := svc.UpdateStatusByToken(asUser(9), r.ID, "paid")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("kind = %v, want not found", apperr.KindOf(err))
	}
}
