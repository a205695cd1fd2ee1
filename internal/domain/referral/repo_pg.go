package referral

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mydrreferral/mydrreferral/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type referralRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &referralRepoPG{pool: pool}
}

func (r *referralRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *referralRepoPG) CreateWithPatient(ctx context.Context, p *Patient, ref *Referral) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		tx := db.TxFromContext(ctx)
		err := tx.QueryRow(ctx, `
			INSERT INTO patient (name, mobile, email, created_by)
			VALUES ($1,$2,$3,$4)
			RETURNING id, created_date`,
			p.Name, p.Mobile, p.Email, p.CreatedBy).
			Scan(&p.ID, &p.CreatedDate)
		if err != nil {
			return err
		}

		ref.PatientID = p.ID
		return tx.QueryRow(ctx, `
			INSERT INTO referral (connection_id, patient_id, notes, fee_amount, status,
				is_accepted, is_paid, accepted_date)
			VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
			RETURNING id, created_date, accepted_date`,
			ref.ConnectionID, ref.PatientID, ref.Notes, ref.FeeAmount, ref.Status,
			ref.IsAccepted, ref.IsPaid).
			Scan(&ref.ID, &ref.CreatedDate, &ref.AcceptedDate)
	})
}

const referralCols = `id, connection_id, patient_id, notes, fee_amount, status,
	is_accepted, is_paid, deleted, created_date, accepted_date,
	patient_visited_date, payment_date`

func (r *referralRepoPG) scanRow(row pgx.Row) (*Referral, error) {
	var ref Referral
	err := row.Scan(&ref.ID, &ref.ConnectionID, &ref.PatientID, &ref.Notes, &ref.FeeAmount,
		&ref.Status, &ref.IsAccepted, &ref.IsPaid, &ref.Deleted, &ref.CreatedDate,
		&ref.AcceptedDate, &ref.PatientVisitedDate, &ref.PaymentDate)
	return &ref, err
}

func (r *referralRepoPG) GetByID(ctx context.Context, id int64) (*Referral, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx,
		`SELECT `+referralCols+` FROM referral WHERE id = $1`, id))
}

func (r *referralRepoPG) GetActiveByID(ctx context.Context, id int64) (*Referral, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx,
		`SELECT `+referralCols+` FROM referral WHERE id = $1 AND NOT deleted`, id))
}

func (r *referralRepoPG) Update(ctx context.Context, ref *Referral) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE referral SET notes=$2, fee_amount=$3, status=$4, is_accepted=$5,
			is_paid=$6, deleted=$7, accepted_date=$8, patient_visited_date=$9,
			payment_date=$10
		WHERE id = $1`,
		ref.ID, ref.Notes, ref.FeeAmount, ref.Status, ref.IsAccepted,
		ref.IsPaid, ref.Deleted, ref.AcceptedDate, ref.PatientVisitedDate,
		ref.PaymentDate)
	return err
}

// Listing joins the patient and the counterpart professional. Soft-deleted
// referrals stay visible so rejections show up as "Rejected" rather than
// vanishing from either party's list.
const viewQuerySent = `
	SELECT r.id, pt.name, pt.mobile, pt.email,
	       pr.first_name || ' ' || pr.last_name, pr.email, pr.mobile,
	       r.notes, r.fee_amount, r.is_accepted, r.is_paid, r.deleted,
	       r.created_date, r.accepted_date, r.patient_visited_date, r.payment_date
	FROM referral r
	JOIN connection c ON c.id = r.connection_id
	JOIN patient pt ON pt.id = r.patient_id
	JOIN professional pr ON pr.id = c.receiver_id
	WHERE c.sender_id = $1
	ORDER BY r.created_date DESC`

const viewQueryReceived = `
	SELECT r.id, pt.name, pt.mobile, pt.email,
	       pr.first_name || ' ' || pr.last_name, pr.email, pr.mobile,
	       r.notes, r.fee_amount, r.is_accepted, r.is_paid, r.deleted,
	       r.created_date, r.accepted_date, r.patient_visited_date, r.payment_date
	FROM referral r
	JOIN connection c ON c.id = r.connection_id
	JOIN patient pt ON pt.id = r.patient_id
	JOIN professional pr ON pr.id = c.sender_id
	WHERE c.receiver_id = $1
	ORDER BY r.created_date DESC`

func (r *referralRepoPG) list(ctx context.Context, query string, professionalID int64) ([]*View, error) {
	rows, err := r.conn(ctx).Query(ctx, query, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []*View
	for rows.Next() {
		var v View
		var ref Referral
		if err := rows.Scan(&v.ReferralID, &v.PatientName, &v.PatientMobile, &v.PatientEmail,
			&v.DoctorName, &v.DoctorEmail, &v.DoctorMobile,
			&v.Notes, &v.FeeAmount, &ref.IsAccepted, &ref.IsPaid, &ref.Deleted,
			&v.CreatedDate, &v.AcceptedDate, &v.PatientVisitedDate, &v.PaymentDate); err != nil {
			return nil, err
		}
		ref.PatientVisitedDate = v.PatientVisitedDate
		ref.PaymentDate = v.PaymentDate
		v.Status = ref.DisplayStatus()
		views = append(views, &v)
	}
	return views, rows.Err()
}

func (r *referralRepoPG) ListSent(ctx context.Context, professionalID int64) ([]*View, error) {
	return r.list(ctx, viewQuerySent, professionalID)
}

func (r *referralRepoPG) ListReceived(ctx context.Context, professionalID int64) ([]*View, error) {
	return r.list(ctx, viewQueryReceived, professionalID)
}
