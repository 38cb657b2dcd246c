package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/traffick-desk/backend/internal/models"
)

type MarketRepo struct {
	pool *pgxpool.Pool
}

func NewMarketRepo(pool *pgxpool.Pool) *MarketRepo {
	return &MarketRepo{pool: pool}
}

func (r *MarketRepo) Create(ctx context.Context, m *models.Market) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO markets (name, code)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, m.Name, m.Code).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	return err
}

func (r *MarketRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Market, error) {
	var m models.Market
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, code, created_at, updated_at
		FROM markets WHERE id = $1
	`, id).Scan(&m.ID, &m.Name, &m.Code, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MarketRepo) List(ctx context.Context) ([]models.Market, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, code, created_at, updated_at
		FROM markets ORDER BY code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var markets []models.Market
	for rows.Next() {
		var m models.Market
		if err := rows.Scan(&m.ID, &m.Name, &m.Code, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		markets = append(markets, m)
	}
	return markets, rows.Err()
}
