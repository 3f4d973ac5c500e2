package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketFilter captures listing parameters. Visibility scoping is expressed
// through RequesterID / ManagementGroup: exactly one of them is set for
// restricted actors, both empty for privileged ones.
type TicketFilter struct {
	RequesterID     *string
	ManagementGroup *string
	RequestTypeIDs  []string
	Statuses        []domain.TicketStatus
	SearchTerm      *string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	UpdatedSince    *time.Time
	Limit           int
	Offset          int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	// CreateWithAnswers inserts the ticket and every answer in one
	// transaction; any failure rolls the whole creation back.
	CreateWithAnswers(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	CountByStatus(ctx context.Context, filter TicketFilter) (map[domain.TicketStatus]int, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, requester_id, request_type_id, status, resolution_note,
        assignee_id, assignee_name, attachment_key, suspended_at, created_at, updated_at`

func (r *ticketRepository) CreateWithAnswers(ctx context.Context, ticket *domain.Ticket) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertTicket = `
        INSERT INTO tickets (requester_id, request_type_id, status, resolution_note,
            assignee_id, assignee_name, attachment_key, suspended_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, insertTicket,
		ticket.RequesterID,
		ticket.RequestTypeID,
		ticket.Status,
		ticket.ResolutionNote,
		ticket.AssigneeID,
		ticket.AssigneeName,
		ticket.AttachmentKey,
		ticket.SuspendedAt,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
		return err
	}

	const insertAnswer = `
        INSERT INTO answers (ticket_id, question_id, value, file_key)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
	for i := range ticket.Answers {
		a := &ticket.Answers[i]
		a.TicketID = ticket.ID
		if err := tx.QueryRow(ctx, insertAnswer, ticket.ID, a.QuestionID, a.Value, a.FileKey).Scan(&a.ID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status=$1, resolution_note=$2, assignee_id=$3, assignee_name=$4,
            attachment_key=$5, suspended_at=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Status,
		ticket.ResolutionNote,
		ticket.AssigneeID,
		ticket.AssigneeName,
		ticket.AttachmentKey,
		ticket.SuspendedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id).Scan(
		&ticket.ID,
		&ticket.RequesterID,
		&ticket.RequestTypeID,
		&ticket.Status,
		&ticket.ResolutionNote,
		&ticket.AssigneeID,
		&ticket.AssigneeName,
		&ticket.AttachmentKey,
		&ticket.SuspendedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
        SELECT a.id, a.ticket_id, a.question_id, a.value, a.file_key
        FROM answers a
        JOIN questions q ON q.id = a.question_id
        WHERE a.ticket_id=$1
        ORDER BY q.display_order, q.id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.ID, &a.TicketID, &a.QuestionID, &a.Value, &a.FileKey); err != nil {
			return nil, err
		}
		ticket.Answers = append(ticket.Answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	query, args := buildTicketQuery(`SELECT `+ticketColumns+` FROM tickets t`, filter, true)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountByStatus(ctx context.Context, filter TicketFilter) (map[domain.TicketStatus]int, error) {
	base := `SELECT t.status, COUNT(*) FROM tickets t`
	filter.Statuses = nil
	query, args := buildTicketQuery(base, filter, false)
	query += ` GROUP BY t.status`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.TicketStatus]int)
	for rows.Next() {
		var status domain.TicketStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[status] = count
	}
	return out, rows.Err()
}

func buildTicketQuery(base string, filter TicketFilter, paginate bool) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	switch {
	case filter.RequesterID != nil && filter.ManagementGroup != nil:
		// Manager scope: own tickets plus tickets of the same management group.
		args = append(args, *filter.RequesterID)
		own := len(args)
		args = append(args, *filter.ManagementGroup)
		clauses = append(clauses, fmt.Sprintf(
			"(t.requester_id=$%d OR t.requester_id IN (SELECT id FROM users WHERE management_group=$%d))",
			own, len(args)))
	case filter.RequesterID != nil:
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("t.requester_id=$%d", len(args)))
	case filter.ManagementGroup != nil:
		args = append(args, *filter.ManagementGroup)
		clauses = append(clauses, fmt.Sprintf(
			"t.requester_id IN (SELECT id FROM users WHERE management_group=$%d)", len(args)))
	}
	if len(filter.RequestTypeIDs) > 0 {
		placeholders := make([]string, len(filter.RequestTypeIDs))
		for i, id := range filter.RequestTypeIDs {
			args = append(args, id)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.request_type_id IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("t.created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("t.created_at <= $%d", len(args)))
	}
	if filter.UpdatedSince != nil {
		args = append(args, *filter.UpdatedSince)
		clauses = append(clauses, fmt.Sprintf("t.updated_at > $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			`(LOWER(t.resolution_note) LIKE %s
              OR t.request_type_id IN (SELECT id FROM request_types WHERE LOWER(name) LIKE %s))`,
			placeholder, placeholder))
	}

	query := fmt.Sprintf("%s WHERE %s", base, strings.Join(clauses, " AND "))
	if paginate {
		limit := filter.Limit
		if limit <= 0 {
			limit = 20
		}
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" ORDER BY t.created_at DESC LIMIT %d OFFSET %d", limit, offset)
	}
	return query, args
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.RequesterID,
			&ticket.RequestTypeID,
			&ticket.Status,
			&ticket.ResolutionNote,
			&ticket.AssigneeID,
			&ticket.AssigneeName,
			&ticket.AttachmentKey,
			&ticket.SuspendedAt,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
