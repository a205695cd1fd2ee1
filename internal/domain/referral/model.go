package referral

import (
	"time"
)

// Status is the numeric lifecycle column. It is monotonic under the numeric
// update path: a referral never moves to a lower value.
type Status int

const (
	StatusInitiated      Status = 1
	StatusInProgress     Status = 2
	StatusPendingPayment Status = 3
	StatusPaid           Status = 4
	StatusCompleted      Status = 5
	StatusCancelled      Status = 6
)

func (s Status) Valid() bool {
	return s >= StatusInitiated && s <= StatusCancelled
}

// Free-text status tokens accepted by the PUT update-status endpoint. These
// mutate timestamp/flag columns directly and never touch the numeric status.
const (
	TokenPatientVisited = "patient_visited"
	TokenPaymentPending = "payment_pending"
	TokenPaid           = "paid"
	TokenRejected       = "rejected"
)

// Display statuses derived from the timestamp/flag columns.
const (
	DisplaySent           = "Sent"
	DisplayReceived       = "Received"
	DisplayPatientVisited = "Patient Visited"
	DisplayPaid           = "Paid"
	DisplayRejected       = "Rejected"
)

// Patient is created alongside every referral; rows are not deduplicated
// across referrals.
type Patient struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Mobile      *string   `db:"mobile" json:"mobile,omitempty"`
	Email       *string   `db:"email" json:"email,omitempty"`
	CreatedBy   int64     `db:"created_by" json:"-"`
	CreatedDate time.Time `db:"created_date" json:"createdDate"`
}

type Referral struct {
	ID                 int64      `db:"id" json:"id"`
	ConnectionID       int64      `db:"connection_id" json:"connectionId"`
	PatientID          int64      `db:"patient_id" json:"patientId"`
	Notes              *string    `db:"notes" json:"notes,omitempty"`
	FeeAmount          int64      `db:"fee_amount" json:"feeAmount"`
	Status             Status     `db:"status" json:"status"`
	IsAccepted         bool       `db:"is_accepted" json:"isAccepted"`
	IsPaid             bool       `db:"is_paid" json:"isPaid"`
	Deleted            bool       `db:"deleted" json:"-"`
	CreatedDate        time.Time  `db:"created_date" json:"createdDate"`
	AcceptedDate       *time.Time `db:"accepted_date" json:"acceptedDate,omitempty"`
	PatientVisitedDate *time.Time `db:"patient_visited_date" json:"patientVisitedDate,omitempty"`
	PaymentDate        *time.Time `db:"payment_date" json:"paymentDate,omitempty"`
}

// DisplayStatus derives the status string shown to clients from the
// timestamp/flag columns, not from the numeric Status column. A rejection
// hides every signal except a completed payment.
func (r *Referral) DisplayStatus() string {
	switch {
	case r.IsPaid || r.PaymentDate != nil:
		return DisplayPaid
	case r.Deleted:
		return DisplayRejected
	case r.PatientVisitedDate != nil:
		return DisplayPatientVisited
	case r.IsAccepted:
		return DisplayReceived
	default:
		return DisplaySent
	}
}

// View is the sent/received listing projection: referral joined with its
// patient and the counterpart professional.
type View struct {
	ReferralID         int64      `json:"referralId"`
	PatientName        string     `json:"patientName"`
	PatientMobile      *string    `json:"patientMobile,omitempty"`
	PatientEmail       *string    `json:"patientEmail,omitempty"`
	DoctorName         string     `json:"doctorName"`
	DoctorEmail        string     `json:"doctorEmail"`
	DoctorMobile       *string    `json:"doctorMobile,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
	FeeAmount          int64      `json:"feeAmount"`
	Status             string     `json:"status"`
	CreatedDate        time.Time  `json:"createdDate"`
	AcceptedDate       *time.Time `json:"acceptedDate,omitempty"`
	PatientVisitedDate *time.Time `json:"patientVisitedDate,omitempty"`
	PaymentDate        *time.Time `json:"paymentDate,omitempty"`
}
