package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/matuszelenak/trojsten-graph/domain"
	"gorm.io/gorm"
)

type graphRepository struct {
	db *gorm.DB
}

func NewGraphRepository(database *gorm.DB) domain.GraphRepo {
	return &graphRepository{
		db: database,
	}
}

func (r *graphRepository) Transaction(ctx context.Context, fn func(tx domain.GraphRepo) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&graphRepository{db: tx})
	})
}

// mapError turns driver errors into domain sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, pgErr.ConstraintName)
	}
	return err
}

// idArray binds a list of ids as one array parameter for "= ANY(?)", which
// keeps large snapshot queries clear of the bind parameter limit.
func idArray(ids []uint) pq.Int64Array {
	out := make(pq.Int64Array, 0, len(ids))
	for _, id := range ids {
		out = append(out, int64(id))
	}
	return out
}
