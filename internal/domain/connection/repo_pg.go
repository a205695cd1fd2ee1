package connection

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

type connectionRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &connectionRepoPG{pool: pool}
}

func (r *connectionRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const connectionCols = `id, sender_id, receiver_id, is_accepted, is_rejected, note,
	deleted, created_by, created_date, last_update_date`

func (r *connectionRepoPG) scanRow(row pgx.Row) (*Connection, error) {
	var c Connection
	err := row.Scan(&c.ID, &c.SenderID, &c.ReceiverID, &c.IsAccepted, &c.IsRejected, &c.Note,
		&c.Deleted, &c.CreatedBy, &c.CreatedDate, &c.LastUpdateDate)
	return &c, err
}

func (r *connectionRepoPG) Create(ctx context.Context, c *Connection) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO connection (sender_id, receiver_id, is_accepted, is_rejected, note, created_by)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_date, last_update_date`,
		c.SenderID, c.ReceiverID, c.IsAccepted, c.IsRejected, c.Note, c.CreatedBy).
		Scan(&c.ID, &c.CreatedDate, &c.LastUpdateDate)
}

func (r *connectionRepoPG) GetByID(ctx context.Context, id int64) (*Connection, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx,
		`SELECT `+connectionCols+` FROM connection WHERE id = $1 AND NOT deleted`, id))
}

func (r *connectionRepoPG) GetByIDForReceiver(ctx context.Context, id, receiverID int64) (*Connection, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx,
		`SELECT `+connectionCols+` FROM connection
		 WHERE id = $1 AND receiver_id = $2 AND NOT deleted`, id, receiverID))
}

func (r *connectionRepoPG) ExistsBetween(ctx context.Context, senderID, receiverID int64) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM connection
		  WHERE sender_id = $1 AND receiver_id = $2 AND NOT deleted)`,
		senderID, receiverID).Scan(&exists)
	return exists, err
}

func (r *connectionRepoPG) Update(ctx context.Context, c *Connection) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE connection SET is_accepted=$2, is_rejected=$3, note=$4, deleted=$5,
			last_update_date=NOW()
		WHERE id = $1`,
		c.ID, c.IsAccepted, c.IsRejected, c.Note, c.Deleted)
	return err
}

// viewQuery joins the counterpart professional. direction chooses which side
// of the edge the counterpart sits on.
const viewQuerySent = `
	SELECT c.id, p.first_name || ' ' || p.last_name, p.email, p.mobile,
	       c.is_accepted, c.is_rejected, c.created_date, c.last_update_date
	FROM connection c
	JOIN professional p ON p.id = c.receiver_id
	WHERE c.sender_id = $1 AND NOT c.deleted
	  AND ($2::boolean IS NULL OR c.is_rejected = $2)
	ORDER BY c.created_date DESC`

const viewQueryReceived = `
	SELECT c.id, p.first_name || ' ' || p.last_name, p.email, p.mobile,
	       c.is_accepted, c.is_rejected, c.created_date, c.last_update_date
	FROM connection c
	JOIN professional p ON p.id = c.sender_id
	WHERE c.receiver_id = $1 AND NOT c.deleted
	  AND ($2::boolean IS NULL OR c.is_rejected = $2)
	ORDER BY c.created_date DESC`

func (r *connectionRepoPG) list(ctx context.Context, query string, professionalID int64, blocked *bool) ([]*View, error) {
	rows, err := r.conn(ctx).Query(ctx, query, professionalID, blocked)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []*View
	for rows.Next() {
		var v View
		var c Connection
		if err := rows.Scan(&v.ConnectionID, &v.DoctorName, &v.Email, &v.Mobile,
			&c.IsAccepted, &c.IsRejected, &v.RequestDate, &v.LastUpdateDate); err != nil {
			return nil, err
		}
		v.Status = c.DisplayStatus()
		views = append(views, &v)
	}
	return views, rows.Err()
}

func (r *connectionRepoPG) ListSent(ctx context.Context, professionalID int64, blocked *bool) ([]*View, error) {
	return r.list(ctx, viewQuerySent, professionalID, blocked)
}

func (r *connectionRepoPG) ListReceived(ctx context.Context, professionalID int64, blocked *bool) ([]*View, error) {
	return r.list(ctx, viewQueryReceived, professionalID, blocked)
}
