package account

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

type professionalRepoPG struct{ pool *pgxpool.Pool }

func NewProfessionalRepoPG(pool *pgxpool.Pool) ProfessionalRepository {
	return &professionalRepoPG{pool: pool}
}

func (r *professionalRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const professionalCols = `id, role, first_name, last_name, email, password_hash, mobile,
	clinic_name, specialty, address_line, city, state, postal_code,
	deleted, created_at, updated_at`

func (r *professionalRepoPG) scanRow(row pgx.Row) (*Professional, error) {
	var p Professional
	err := row.Scan(&p.ID, &p.Role, &p.FirstName, &p.LastName, &p.Email, &p.PasswordHash, &p.Mobile,
		&p.ClinicName, &p.Specialty, &p.AddressLine, &p.City, &p.State, &p.PostalCode,
		&p.Deleted, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *professionalRepoPG) Create(ctx context.Context, p *Professional) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO professional (role, first_name, last_name, email, password_hash, mobile,
			clinic_name, specialty, address_line, city, state, postal_code)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, created_at, updated_at`,
		p.Role, p.FirstName, p.LastName, p.Email, p.PasswordHash, p.Mobile,
		p.ClinicName, p.Specialty, p.AddressLine, p.City, p.State, p.PostalCode).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *professionalRepoPG) GetByID(ctx context.Context, id int64) (*Professional, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx,
		`SELECT `+professionalCols+` FROM professional WHERE id = $1 AND NOT deleted`, id))
}

func (r *professionalRepoPG) GetByEmail(ctx context.Context, email string) (*Professional, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx,
		`SELECT `+professionalCols+` FROM professional WHERE lower(email) = lower($1) AND NOT deleted`, email))
}

func (r *professionalRepoPG) Update(ctx context.Context, p *Professional) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE professional SET first_name=$2, last_name=$3, mobile=$4, clinic_name=$5,
			specialty=$6, address_line=$7, city=$8, state=$9, postal_code=$10, updated_at=NOW()
		WHERE id = $1 AND NOT deleted`,
		p.ID, p.FirstName, p.LastName, p.Mobile, p.ClinicName,
		p.Specialty, p.AddressLine, p.City, p.State, p.PostalCode)
	return err
}

func (r *professionalRepoPG) Search(ctx context.Context, query, role string, excludeID int64, limit, offset int) ([]*Professional, int, error) {
	where := ` FROM professional
		WHERE NOT deleted
		  AND id <> $1
		  AND ($2 = '' OR role = $2)
		  AND ($3 = '' OR first_name ILIKE '%'||$3||'%' OR last_name ILIKE '%'||$3||'%'
		       OR clinic_name ILIKE '%'||$3||'%' OR specialty ILIKE '%'||$3||'%')`

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*)`+where, excludeID, role, query).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+professionalCols+where+` ORDER BY first_name, last_name LIMIT $4 OFFSET $5`,
		excludeID, role, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Professional
	for rows.Next() {
		p, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}
