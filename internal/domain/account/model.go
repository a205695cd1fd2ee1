package account

import (
	"strings"
	"time"
)

// Roles a professional can register as.
const (
	RoleDoctor = "doctor"
	RoleLab    = "lab"
	RoleAgent  = "agent"
)

var validRoles = map[string]bool{
	RoleDoctor: true,
	RoleLab:    true,
	RoleAgent:  true,
}

// Professional maps to the professional table. Doctors, labs, and agents all
// share this shape; role distinguishes them.
type Professional struct {
	ID           int64     `db:"id" json:"id"`
	Role         string    `db:"role" json:"role"`
	FirstName    string    `db:"first_name" json:"firstName"`
	LastName     string    `db:"last_name" json:"lastName"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Mobile       *string   `db:"mobile" json:"mobile,omitempty"`
	ClinicName   *string   `db:"clinic_name" json:"clinicName,omitempty"`
	Specialty    *string   `db:"specialty" json:"specialty,omitempty"`
	AddressLine  *string   `db:"address_line" json:"addressLine,omitempty"`
	City         *string   `db:"city" json:"city,omitempty"`
	State        *string   `db:"state" json:"state,omitempty"`
	PostalCode   *string   `db:"postal_code" json:"postalCode,omitempty"`
	Deleted      bool      `db:"deleted" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// FullName returns the display name used in connection and referral listings.
func (p *Professional) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
