package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/traffick-desk/backend/internal/models"
)

type TicketRepo struct {
	pool *pgxpool.Pool
}

func NewTicketRepo(pool *pgxpool.Pool) *TicketRepo {
	return &TicketRepo{pool: pool}
}

func (r *TicketRepo) Create(ctx context.Context, t *models.Ticket) error {
	payloadBytes, err := json.Marshal(t.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO tickets (campaign_id, channel_id, request_type, payload, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, t.CampaignID, t.ChannelID, t.RequestType, payloadBytes, t.Status,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *TicketRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	var t models.Ticket
	var payloadBytes []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, campaign_id, channel_id, request_type, payload, status,
		       external_platform_id, failure_reason, created_at, updated_at
		FROM tickets WHERE id = $1
	`, id).Scan(&t.ID, &t.CampaignID, &t.ChannelID, &t.RequestType, &payloadBytes, &t.Status,
		&t.ExternalPlatformID, &t.FailureReason, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payloadBytes, &t.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &t, nil
}

// GetForDispatch loads the ticket joined with its campaign, channel and brand
// in one query so the rule engine and the coordinator see a consistent view.
func (r *TicketRepo) GetForDispatch(ctx context.Context, id uuid.UUID) (*models.TicketContext, error) {
	var tc models.TicketContext
	var payloadBytes []byte
	err := r.pool.QueryRow(ctx, `
		SELECT t.id, t.campaign_id, t.channel_id, t.request_type, t.payload, t.status,
		       t.external_platform_id, t.failure_reason, t.created_at, t.updated_at,
		       c.name, ch.platform_name, b.name, b.restricted
		FROM tickets t
		JOIN campaigns c ON c.id = t.campaign_id
		JOIN channels ch ON ch.id = t.channel_id
		JOIN brands b ON b.id = c.brand_id
		WHERE t.id = $1
	`, id).Scan(&tc.ID, &tc.CampaignID, &tc.ChannelID, &tc.RequestType, &payloadBytes, &tc.Status,
		&tc.ExternalPlatformID, &tc.FailureReason, &tc.CreatedAt, &tc.UpdatedAt,
		&tc.CampaignName, &tc.PlatformName, &tc.BrandName, &tc.Restricted)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payloadBytes, &tc.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &tc, nil
}

// UpdatePayload replaces the payload of a draft ticket. Tickets past draft are
// immutable except for their status fields; ErrConflict reports an attempt to
// edit one.
func (r *TicketRepo) UpdatePayload(ctx context.Context, id uuid.UUID, payload map[string]any) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE tickets SET payload = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`, payloadBytes, id, models.TicketStatusDraft)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

// CompareAndSetStatus transitions the ticket only if its stored status still
// equals expected. The external id is set-once (COALESCE keeps the first
// write); the failure reason is overwritten, nil clearing it. ErrConflict
// means another writer got there first.
func (r *TicketRepo) CompareAndSetStatus(ctx context.Context, id uuid.UUID, expected, next string, fields TicketStatusFields) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tickets SET
			status = $1,
			external_platform_id = COALESCE(external_platform_id, $2),
			failure_reason = $3,
			dispatch_claimed_at = NULL,
			updated_at = now()
		WHERE id = $4 AND status = $5
	`, next, fields.ExternalID, fields.FailureReason, id, expected)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

// ClaimForDispatch takes the durable dispatch claim on an
// approved_for_dispatch ticket. The claim makes the at-most-one-in-flight
// guarantee hold across processes: a second coordinator (api vs worker)
// gets ErrConflict until the holder finishes or the claim ages past ttl.
func (r *TicketRepo) ClaimForDispatch(ctx context.Context, id uuid.UUID, ttl time.Duration) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tickets SET dispatch_claimed_at = now()
		WHERE id = $1 AND status = $2
		  AND (dispatch_claimed_at IS NULL OR dispatch_claimed_at < now() - ($3 || ' seconds')::interval)
	`, id, models.TicketStatusApprovedForDispatch, fmt.Sprintf("%d", int(ttl.Seconds())))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

// ReleaseDispatchClaim drops the claim without a status change, for dispatch
// loops that exit early (cancellation). Terminal outcomes release it through
// CompareAndSetStatus instead.
func (r *TicketRepo) ReleaseDispatchClaim(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE tickets SET dispatch_claimed_at = NULL WHERE id = $1
	`, id)
	return err
}

func (r *TicketRepo) missOrConflict(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}

type TicketFilter struct {
	CampaignID *uuid.UUID
	ChannelID  *uuid.UUID
	Status     *string
	Limit      int
	Offset     int
}

func (r *TicketRepo) List(ctx context.Context, f TicketFilter) ([]models.Ticket, error) {
	query := `
		SELECT id, campaign_id, channel_id, request_type, payload, status,
		       external_platform_id, failure_reason, created_at, updated_at
		FROM tickets
	`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.CampaignID != nil {
		where = append(where, fmt.Sprintf("campaign_id = $%d", argIdx))
		args = append(args, *f.CampaignID)
		argIdx++
	}
	if f.ChannelID != nil {
		where = append(where, fmt.Sprintf("channel_id = $%d", argIdx))
		args = append(args, *f.ChannelID)
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

	return scanTickets(rows)
}

// ListByStatusOlderThan returns tickets stuck in one status longer than
// minAge. The worker sweeps approved_for_dispatch rows through it.
func (r *TicketRepo) ListByStatusOlderThan(ctx context.Context, status string, minAge time.Duration) ([]models.Ticket, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, campaign_id, channel_id, request_type, payload, status,
		       external_platform_id, failure_reason, created_at, updated_at
		FROM tickets
		WHERE status = $1 AND updated_at < now() - ($2 || ' seconds')::interval
	`, status, fmt.Sprintf("%d", int(minAge.Seconds())))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]models.Ticket, error) {
	var tickets []models.Ticket
	for rows.Next() {
		var t models.Ticket
		var payloadBytes []byte
		if err := rows.Scan(&t.ID, &t.CampaignID, &t.ChannelID, &t.RequestType, &payloadBytes, &t.Status,
			&t.ExternalPlatformID, &t.FailureReason, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payloadBytes, &t.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}
