package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/traffick-desk/backend/internal/models"
)

type BrandRepo struct {
	pool *pgxpool.Pool
}

func NewBrandRepo(pool *pgxpool.Pool) *BrandRepo {
	return &BrandRepo{pool: pool}
}

func (r *BrandRepo) Create(ctx context.Context, b *models.Brand) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO brands (name, internal_code, restricted)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, b.Name, b.InternalCode, b.Restricted).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	return err
}

func (r *BrandRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
	var b models.Brand
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, internal_code, restricted, created_at, updated_at
		FROM brands WHERE id = $1
	`, id).Scan(&b.ID, &b.Name, &b.InternalCode, &b.Restricted, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BrandRepo) List(ctx context.Context) ([]models.Brand, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, internal_code, restricted, created_at, updated_at
		FROM brands ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var brands []models.Brand
	for rows.Next() {
		var b models.Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.InternalCode, &b.Restricted, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		brands = append(brands, b)
	}
	return brands, rows.Err()
}

func (r *BrandRepo) SetRestricted(ctx context.Context, id uuid.UUID, restricted bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE brands SET restricted = $1, updated_at = now() WHERE id = $2`, restricted, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
