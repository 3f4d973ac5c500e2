package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RequestTypeRepository persists request types and their questions.
type RequestTypeRepository interface {
	Create(ctx context.Context, t *domain.RequestType) error
	Update(ctx context.Context, t *domain.RequestType) error
	GetByID(ctx context.Context, id string) (*domain.RequestType, error)
	List(ctx context.Context, onlyActive bool) ([]domain.RequestType, error)
	// ReplaceQuestions swaps the full question set of a type in one transaction.
	ReplaceQuestions(ctx context.Context, typeID string, questions []domain.Question) error
}

type requestTypeRepository struct {
	pool *pgxpool.Pool
}

// NewRequestTypeRepository instantiates the repository.
func NewRequestTypeRepository(pool *pgxpool.Pool) RequestTypeRepository {
	return &requestTypeRepository{pool: pool}
}

func (r *requestTypeRepository) Create(ctx context.Context, t *domain.RequestType) error {
	const query = `
        INSERT INTO request_types (name, description, active, allowed_sectors)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		t.Name, t.Description, t.Active, t.AllowedSectors,
	).Scan(&t.ID, &t.CreatedAt)
}

func (r *requestTypeRepository) Update(ctx context.Context, t *domain.RequestType) error {
	const query = `
        UPDATE request_types SET name=$1, description=$2, active=$3, allowed_sectors=$4
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query, t.Name, t.Description, t.Active, t.AllowedSectors, t.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *requestTypeRepository) GetByID(ctx context.Context, id string) (*domain.RequestType, error) {
	const query = `
        SELECT id, name, description, active, allowed_sectors, created_at
        FROM request_types WHERE id=$1`
	var t domain.RequestType
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Description, &t.Active, &t.AllowedSectors, &t.CreatedAt,
	); err != nil {
		return nil, err
	}
	questions, err := r.questionsFor(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.Questions = questions
	return &t, nil
}

func (r *requestTypeRepository) List(ctx context.Context, onlyActive bool) ([]domain.RequestType, error) {
	query := `SELECT id, name, description, active, allowed_sectors, created_at FROM request_types`
	if onlyActive {
		query += ` WHERE active`
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.RequestType
	for rows.Next() {
		var t domain.RequestType
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Active, &t.AllowedSectors, &t.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		questions, err := r.questionsFor(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Questions = questions
	}
	return result, nil
}

func (r *requestTypeRepository) questionsFor(ctx context.Context, typeID string) ([]domain.Question, error) {
	const query = `
        SELECT id, request_type_id, text, kind, required, help_text, display_order, options, active
        FROM questions WHERE request_type_id=$1
        ORDER BY display_order, id`
	rows, err := r.pool.Query(ctx, query, typeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(
			&q.ID, &q.RequestTypeID, &q.Text, &q.Kind, &q.Required,
			&q.HelpText, &q.Order, &q.Options, &q.Active,
		); err != nil {
			return nil, err
		}
		result = append(result, q)
	}
	return result, rows.Err()
}

func (r *requestTypeRepository) ReplaceQuestions(ctx context.Context, typeID string, questions []domain.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Questions already answered on tickets are protected by FK; deactivate
	// instead of deleting when the delete is rejected upstream.
	if _, err := tx.Exec(ctx,
		`DELETE FROM questions WHERE request_type_id=$1
           AND NOT EXISTS (SELECT 1 FROM answers a WHERE a.question_id = questions.id)`, typeID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE questions SET active=FALSE WHERE request_type_id=$1`, typeID); err != nil {
		return err
	}
	for i := range questions {
		q := &questions[i]
		if err := tx.QueryRow(ctx, `
            INSERT INTO questions (request_type_id, text, kind, required, help_text, display_order, options, active)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
            RETURNING id`,
			typeID, q.Text, q.Kind, q.Required, q.HelpText, q.Order, q.Options, q.Active,
		).Scan(&q.ID); err != nil {
			return err
		}
		q.RequestTypeID = typeID
	}
	return tx.Commit(ctx)
}
