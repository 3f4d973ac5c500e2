package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// SeenRepository persists the per-user "last seen" watermarks.
type SeenRepository interface {
	UpsertSection(ctx context.Context, userID string, section domain.Section, at time.Time) error
	GetSection(ctx context.Context, userID string, section domain.Section) (*domain.SectionView, error)
	// UpsertTicketViews updates every (user, ticket) watermark in a single
	// transaction: all rows move forward or none do.
	UpsertTicketViews(ctx context.Context, userID string, ticketIDs []string, at time.Time) error
	MapTicketViews(ctx context.Context, userID string, ticketIDs []string) (map[string]time.Time, error)
}

type seenRepository struct {
	pool *pgxpool.Pool
}

// NewSeenRepository instantiates the repository.
func NewSeenRepository(pool *pgxpool.Pool) SeenRepository {
	return &seenRepository{pool: pool}
}

func (r *seenRepository) UpsertSection(ctx context.Context, userID string, section domain.Section, at time.Time) error {
	const query = `
        INSERT INTO section_views (user_id, section, last_seen)
        VALUES ($1,$2,$3)
        ON CONFLICT (user_id, section) DO UPDATE SET last_seen=EXCLUDED.last_seen`
	_, err := r.pool.Exec(ctx, query, userID, section, at)
	return err
}

func (r *seenRepository) GetSection(ctx context.Context, userID string, section domain.Section) (*domain.SectionView, error) {
	const query = `SELECT user_id, section, last_seen FROM section_views WHERE user_id=$1 AND section=$2`
	var view domain.SectionView
	err := r.pool.QueryRow(ctx, query, userID, section).Scan(&view.UserID, &view.Section, &view.LastSeen)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (r *seenRepository) UpsertTicketViews(ctx context.Context, userID string, ticketIDs []string, at time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO ticket_views (user_id, ticket_id, last_seen)
        VALUES ($1,$2,$3)
        ON CONFLICT (user_id, ticket_id) DO UPDATE SET last_seen=EXCLUDED.last_seen`
	for _, id := range ticketIDs {
		if _, err := tx.Exec(ctx, query, userID, id, at); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *seenRepository) MapTicketViews(ctx context.Context, userID string, ticketIDs []string) (map[string]time.Time, error) {
	if len(ticketIDs) == 0 {
		return map[string]time.Time{}, nil
	}
	const query = `SELECT ticket_id, last_seen FROM ticket_views WHERE user_id=$1 AND ticket_id = ANY($2)`
	rows, err := r.pool.Query(ctx, query, userID, ticketIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]time.Time, len(ticketIDs))
	for rows.Next() {
		var id string
		var ts time.Time
		if err := rows.Scan(&id, &ts); err != nil {
			return nil, err
		}
		out[id] = ts
	}
	return out, rows.Err()
}
