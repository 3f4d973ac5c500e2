package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// NotificationRepository persists the notification log and opt-out rules.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	// MarkSent flips the sent flag after a successful delivery.
	MarkSent(ctx context.Context, id string, at time.Time) error
	// MarkFailed records the transport error on the row.
	MarkFailed(ctx context.Context, id string, errText string) error
	ListByEmail(ctx context.Context, email string, channel domain.NotificationChannel, limit int) ([]domain.Notification, error)
	CountWeb(ctx context.Context, email string) (int, error)
	// DeleteForEmail removes a web row owned by the address ("mark as read").
	DeleteForEmail(ctx context.Context, id, email string) error
	IsOptedOut(ctx context.Context, email, kind string) (bool, error)
	AddOptOut(ctx context.Context, rule domain.OptOut) error
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository instantiates the repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	const query = `
        INSERT INTO notifications (kind, channel, to_email, subject, body_text, body_html,
            sent, error, sent_at, ref_app, ref_model, ref_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		n.Kind,
		n.Channel,
		n.ToEmail,
		n.Subject,
		n.BodyText,
		n.BodyHTML,
		n.Sent,
		n.Error,
		n.SentAt,
		n.RefApp,
		n.RefModel,
		n.RefID,
	).Scan(&n.ID, &n.CreatedAt)
}

func (r *notificationRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET sent=TRUE, sent_at=$1, error='' WHERE id=$2`, at, id)
	return err
}

func (r *notificationRepository) MarkFailed(ctx context.Context, id string, errText string) error {
	if len(errText) > 1000 {
		errText = errText[:1000]
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET error=$1 WHERE id=$2`, errText, id)
	return err
}

func (r *notificationRepository) ListByEmail(ctx context.Context, email string, channel domain.NotificationChannel, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, kind, channel, to_email, subject, body_text, body_html,
               sent, error, sent_at, ref_app, ref_model, ref_id, created_at
        FROM notifications
        WHERE LOWER(to_email)=LOWER($1) AND channel=$2
        ORDER BY created_at DESC
        LIMIT $3`
	rows, err := r.pool.Query(ctx, query, email, channel, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID, &n.Kind, &n.Channel, &n.ToEmail, &n.Subject, &n.BodyText, &n.BodyHTML,
			&n.Sent, &n.Error, &n.SentAt, &n.RefApp, &n.RefModel, &n.RefID, &n.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *notificationRepository) CountWeb(ctx context.Context, email string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE LOWER(to_email)=LOWER($1) AND channel='web'`,
		email).Scan(&count)
	return count, err
}

func (r *notificationRepository) DeleteForEmail(ctx context.Context, id, email string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM notifications WHERE id=$1 AND LOWER(to_email)=LOWER($2)`, id, email)
	return err
}

func (r *notificationRepository) IsOptedOut(ctx context.Context, email, kind string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM notification_opt_outs
            WHERE LOWER(email)=LOWER($1) AND (kind='' OR kind=$2))`,
		email, kind).Scan(&exists)
	return exists, err
}

func (r *notificationRepository) AddOptOut(ctx context.Context, rule domain.OptOut) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO notification_opt_outs (email, kind) VALUES (LOWER($1), $2)
        ON CONFLICT (email, kind) DO NOTHING`,
		rule.Email, rule.Kind)
	return err
}
