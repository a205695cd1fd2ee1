package account

import (
	"context"
)

type ProfessionalRepository interface {
	Create(ctx context.Context, p *Professional) error
	GetByID(ctx context.Context, id int64) (*Professional, error)
	GetByEmail(ctx context.Context, email string) (*Professional, error)
	Update(ctx context.Context, p *Professional) error
	Search(ctx context.Context, query, role string, excludeID int64, limit, offset int) ([]*Professional, int, error)
}
