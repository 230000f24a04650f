package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/clinistock-api/internal/domain"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
	"github.com/jhoicas/clinistock-api/internal/domain/repository"
)

var _ repository.ClinicRepository = (*ClinicRepo)(nil)

// ClinicRepo implementación de ClinicRepository sobre PostgreSQL.
type ClinicRepo struct {
	q Querier
}

// NewClinicRepository construye el adaptador. Pasar pool o tx (Querier).
func NewClinicRepository(q Querier) *ClinicRepo {
	return &ClinicRepo{q: q}
}

func (r *ClinicRepo) Create(ctx context.Context, c *entity.Clinic) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO clinics (id, code, name, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Code, c.Name, c.Address, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return wrapErr("insert clinic", err)
	}
	return nil
}

func (r *ClinicRepo) GetByID(ctx context.Context, id string) (*entity.Clinic, error) {
	return r.getOne(ctx, `SELECT id, code, name, address, created_at, updated_at FROM clinics WHERE id = $1`, id)
}

func (r *ClinicRepo) GetByCode(ctx context.Context, code string) (*entity.Clinic, error) {
	return r.getOne(ctx, `SELECT id, code, name, address, created_at, updated_at FROM clinics WHERE code = $1`, code)
}

func (r *ClinicRepo) getOne(ctx context.Context, query string, arg string) (*entity.Clinic, error) {
	var c entity.Clinic
	err := r.q.QueryRow(ctx, query, arg).Scan(&c.ID, &c.Code, &c.Name, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get clinic", err)
	}
	return &c, nil
}

func (r *ClinicRepo) List(ctx context.Context) ([]*entity.Clinic, error) {
	rows, err := r.q.Query(ctx, `SELECT id, code, name, address, created_at, updated_at FROM clinics ORDER BY code`)
	if err != nil {
		return nil, wrapErr("list clinics", err)
	}
	defer rows.Close()
	var out []*entity.Clinic
	for rows.Next() {
		var c entity.Clinic
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan clinic: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
