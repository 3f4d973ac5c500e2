package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// MessageRepository persists the append-only conversation log.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	// ListByTicket returns the thread in chronological order; publicOnly
	// strips internal rows for non-privileged readers.
	ListByTicket(ctx context.Context, ticketID string, publicOnly bool) ([]domain.Message, error)
	// LatestPublicFromOthers returns, per ticket id, the timestamp of the most
	// recent public message not authored by the given user.
	LatestPublicFromOthers(ctx context.Context, ticketIDs []string, userID string) (map[string]time.Time, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository instantiates the repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	const query = `
        INSERT INTO messages (ticket_id, author_id, body, attachment_key, visibility, event_kind)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		msg.TicketID,
		msg.AuthorID,
		msg.Body,
		msg.AttachmentKey,
		msg.Visibility,
		msg.EventKind,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *messageRepository) ListByTicket(ctx context.Context, ticketID string, publicOnly bool) ([]domain.Message, error) {
	query := `
        SELECT m.id, m.ticket_id, m.author_id, u.full_name, m.body, m.attachment_key,
               m.visibility, m.event_kind, m.created_at
        FROM messages m
        JOIN users u ON u.id = m.author_id
        WHERE m.ticket_id=$1`
	if publicOnly {
		query += ` AND m.visibility='publica'`
	}
	query += ` ORDER BY m.created_at, m.id`

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(
			&m.ID, &m.TicketID, &m.AuthorID, &m.AuthorName, &m.Body,
			&m.AttachmentKey, &m.Visibility, &m.EventKind, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (r *messageRepository) LatestPublicFromOthers(ctx context.Context, ticketIDs []string, userID string) (map[string]time.Time, error) {
	if len(ticketIDs) == 0 {
		return map[string]time.Time{}, nil
	}
	const query = `
        SELECT ticket_id, MAX(created_at)
        FROM messages
        WHERE ticket_id = ANY($1) AND visibility='publica' AND author_id <> $2
        GROUP BY ticket_id`
	rows, err := r.pool.Query(ctx, query, ticketIDs, userID)
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
