package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/traffick-desk/backend/internal/models"
)

type ChannelRepo struct {
	pool *pgxpool.Pool
}

func NewChannelRepo(pool *pgxpool.Pool) *ChannelRepo {
	return &ChannelRepo{pool: pool}
}

func (r *ChannelRepo) Create(ctx context.Context, ch *models.Channel) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO channels (platform_name, api_identifier)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, ch.PlatformName, ch.APIIdentifier).Scan(&ch.ID, &ch.CreatedAt, &ch.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	return err
}

func (r *ChannelRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Channel, error) {
	var ch models.Channel
	err := r.pool.QueryRow(ctx, `
		SELECT id, platform_name, api_identifier, created_at, updated_at
		FROM channels WHERE id = $1
	`, id).Scan(&ch.ID, &ch.PlatformName, &ch.APIIdentifier, &ch.CreatedAt, &ch.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *ChannelRepo) List(ctx context.Context) ([]models.Channel, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, platform_name, api_identifier, created_at, updated_at
		FROM channels ORDER BY platform_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		var ch models.Channel
		if err := rows.Scan(&ch.ID, &ch.PlatformName, &ch.APIIdentifier, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}
