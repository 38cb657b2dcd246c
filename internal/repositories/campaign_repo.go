package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/traffick-desk/backend/internal/models"
)

type CampaignRepo struct {
	pool *pgxpool.Pool
}

func NewCampaignRepo(pool *pgxpool.Pool) *CampaignRepo {
	return &CampaignRepo{pool: pool}
}

func (r *CampaignRepo) Create(ctx context.Context, c *models.Campaign) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO campaigns (name, brand_id, market_id, budget, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, c.Name, c.BrandID, c.MarketID, c.Budget, c.Status,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	return err
}

func (r *CampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *CampaignRepo) GetByName(ctx context.Context, name string) (*models.Campaign, error) {
	return r.getBy(ctx, "name = $1", name)
}

func (r *CampaignRepo) getBy(ctx context.Context, cond string, arg any) (*models.Campaign, error) {
	var c models.Campaign
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, brand_id, market_id, budget, status, created_at, updated_at
		FROM campaigns WHERE `+cond,
		arg).Scan(&c.ID, &c.Name, &c.BrandID, &c.MarketID, &c.Budget, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

type CampaignFilter struct {
	BrandID  *uuid.UUID
	MarketID *uuid.UUID
	Status   *string
	Limit    int
	Offset   int
}

func (r *CampaignRepo) List(ctx context.Context, f CampaignFilter) ([]models.Campaign, error) {
	query := `
		SELECT id, name, brand_id, market_id, budget, status, created_at, updated_at
		FROM campaigns
	`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.BrandID != nil {
		where = append(where, fmt.Sprintf("brand_id = $%d", argIdx))
		args = append(args, *f.BrandID)
		argIdx++
	}
	if f.MarketID != nil {
		where = append(where, fmt.Sprintf("market_id = $%d", argIdx))
		args = append(args, *f.MarketID)
		argIdx++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *f.Status)
		argIdx++
	}

	if len(where) > 0 {
		query += " WHERE "
		for i, w := range where {
			if i > 0 {
				query += " AND "
			}
			query += w
		}
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []models.Campaign
	for rows.Next() {
		var c models.Campaign
		if err := rows.Scan(&c.ID, &c.Name, &c.BrandID, &c.MarketID, &c.Budget, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// The taxonomy name never changes once issued; budget and status are the only
// writable columns after creation.
func (r *CampaignRepo) UpdateBudget(ctx context.Context, id uuid.UUID, budget string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE campaigns SET budget = $1, updated_at = now() WHERE id = $2`, budget, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CampaignRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE campaigns SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
