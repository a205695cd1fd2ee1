package connection

import (
	"time"
)

// Display statuses derived from the accepted/rejected flags. Never stored.
const (
	StatusPending = "Pending"
	StatusApprove = "Approve"
	StatusBlocked = "Blocked"
)

// Connection is a directed edge between two professionals. Referrals only
// flow from sender to receiver once the receiver has accepted.
type Connection struct {
	ID             int64     `db:"id" json:"id"`
	SenderID       int64     `db:"sender_id" json:"senderId"`
	ReceiverID     int64     `db:"receiver_id" json:"receiverId"`
	IsAccepted     bool      `db:"is_accepted" json:"isAccepted"`
	IsRejected     bool      `db:"is_rejected" json:"isRejected"`
	Note           *string   `db:"note" json:"note,omitempty"`
	Deleted        bool      `db:"deleted" json:"-"`
	CreatedBy      int64     `db:"created_by" json:"-"`
	CreatedDate    time.Time `db:"created_date" json:"createdDate"`
	LastUpdateDate time.Time `db:"last_update_date" json:"lastUpdateDate"`
}

// DisplayStatus computes the textual status shown to clients: Pending while
// neither flag is set, Approve whenever accepted is set, Blocked otherwise.
func (c *Connection) DisplayStatus() string {
	switch {
	case c.IsAccepted:
		return StatusApprove
	case c.IsRejected:
		return StatusBlocked
	default:
		return StatusPending
	}
}

// View is the listing projection: the connection joined with the counterpart
// professional's contact details.
type View struct {
	ConnectionID   int64     `json:"connectionId"`
	DoctorName     string    `json:"doctorName"`
	Email          string    `json:"email"`
	Mobile         *string   `json:"mobile,omitempty"`
	Status         string    `json:"status"`
	RequestDate    time.Time `json:"requestDate"`
	LastUpdateDate time.Time `json:"lastUpdateDate"`
}
