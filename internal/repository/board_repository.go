package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// BoardRepository persists cost centres, projects, members and tasks.
type BoardRepository interface {
	CreateCostCenter(ctx context.Context, c *domain.CostCenter) error
	GetCostCenter(ctx context.Context, id string) (*domain.CostCenter, error)
	ListCostCenters(ctx context.Context, onlyActive bool) ([]domain.CostCenter, error)

	UpsertMember(ctx context.Context, m *domain.CostCenterMember) error
	GetMember(ctx context.Context, costCenterID, userID string) (*domain.CostCenterMember, error)

	CreateProject(ctx context.Context, p *domain.Project) error
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	ListProjects(ctx context.Context, costCenterID string) ([]domain.Project, error)

	CreateTask(ctx context.Context, t *domain.Task) error
	UpdateTask(ctx context.Context, t *domain.Task) error
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	ListTasks(ctx context.Context, costCenterID string, statuses []domain.TaskStatus) ([]domain.Task, error)
}

type boardRepository struct {
	pool *pgxpool.Pool
}

// NewBoardRepository instantiates the repository.
func NewBoardRepository(pool *pgxpool.Pool) BoardRepository {
	return &boardRepository{pool: pool}
}

func (r *boardRepository) CreateCostCenter(ctx context.Context, c *domain.CostCenter) error {
	const query = `
        INSERT INTO cost_centers (name, code, client, active, contact_name, contact_email,
            contact_phone, contract_start, contract_end, budget_total, planned_hours)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		c.Name, c.Code, c.Client, c.Active, c.ContactName, c.ContactEmail,
		c.ContactPhone, c.ContractStart, c.ContractEnd, c.BudgetTotal, c.PlannedHours,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

const costCenterColumns = `id, name, code, client, active, contact_name, contact_email,
        contact_phone, contract_start, contract_end, budget_total, planned_hours, created_at, updated_at`

func (r *boardRepository) GetCostCenter(ctx context.Context, id string) (*domain.CostCenter, error) {
	var c domain.CostCenter
	err := r.pool.QueryRow(ctx,
		`SELECT `+costCenterColumns+` FROM cost_centers WHERE id=$1`, id).Scan(
		&c.ID, &c.Name, &c.Code, &c.Client, &c.Active, &c.ContactName, &c.ContactEmail,
		&c.ContactPhone, &c.ContractStart, &c.ContractEnd, &c.BudgetTotal, &c.PlannedHours,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *boardRepository) ListCostCenters(ctx context.Context, onlyActive bool) ([]domain.CostCenter, error) {
	query := `SELECT ` + costCenterColumns + ` FROM cost_centers`
	if onlyActive {
		query += ` WHERE active`
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CostCenter
	for rows.Next() {
		var c domain.CostCenter
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Code, &c.Client, &c.Active, &c.ContactName, &c.ContactEmail,
			&c.ContactPhone, &c.ContractStart, &c.ContractEnd, &c.BudgetTotal, &c.PlannedHours,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *boardRepository) UpsertMember(ctx context.Context, m *domain.CostCenterMember) error {
	const query = `
        INSERT INTO cost_center_members (cost_center_id, user_id, role, active)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (cost_center_id, user_id) DO UPDATE SET role=EXCLUDED.role, active=EXCLUDED.active
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query, m.CostCenterID, m.UserID, m.Role, m.Active).Scan(&m.CreatedAt)
}

func (r *boardRepository) GetMember(ctx context.Context, costCenterID, userID string) (*domain.CostCenterMember, error) {
	var m domain.CostCenterMember
	err := r.pool.QueryRow(ctx, `
        SELECT cost_center_id, user_id, role, active, created_at
        FROM cost_center_members WHERE cost_center_id=$1 AND user_id=$2`,
		costCenterID, userID).Scan(&m.CostCenterID, &m.UserID, &m.Role, &m.Active, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *boardRepository) CreateProject(ctx context.Context, p *domain.Project) error {
	const query = `
        INSERT INTO projects (cost_center_id, name, active)
        VALUES ($1,$2,$3) RETURNING id`
	return r.pool.QueryRow(ctx, query, p.CostCenterID, p.Name, p.Active).Scan(&p.ID)
}

func (r *boardRepository) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	var p domain.Project
	err := r.pool.QueryRow(ctx,
		`SELECT id, cost_center_id, name, active FROM projects WHERE id=$1`, id).Scan(
		&p.ID, &p.CostCenterID, &p.Name, &p.Active)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *boardRepository) ListProjects(ctx context.Context, costCenterID string) ([]domain.Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, cost_center_id, name, active FROM projects WHERE cost_center_id=$1 ORDER BY name`,
		costCenterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.CostCenterID, &p.Name, &p.Active); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

const taskColumns = `id, cost_center_id, project_id, name, guidance, authorized_ids,
        planned_start, planned_end, planned_hours, recurrence_mask, publish_at,
        close_end_of_day, status, created_by_id, created_at, updated_at`

func (r *boardRepository) CreateTask(ctx context.Context, t *domain.Task) error {
	const query = `
        INSERT INTO tasks (cost_center_id, project_id, name, guidance, authorized_ids,
            planned_start, planned_end, planned_hours, recurrence_mask, publish_at,
            close_end_of_day, status, created_by_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		t.CostCenterID, t.ProjectID, t.Name, t.Guidance, t.AuthorizedIDs,
		t.PlannedStart, t.PlannedEnd, t.PlannedHours, t.RecurrenceMask, t.PublishAt,
		t.CloseEndOfDay, t.Status, t.CreatedByID,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *boardRepository) UpdateTask(ctx context.Context, t *domain.Task) error {
	const query = `
        UPDATE tasks SET name=$1, guidance=$2, authorized_ids=$3, planned_start=$4,
            planned_end=$5, planned_hours=$6, recurrence_mask=$7, publish_at=$8,
            close_end_of_day=$9, status=$10, updated_at=NOW()
        WHERE id=$11`
	cmd, err := r.pool.Exec(ctx, query,
		t.Name, t.Guidance, t.AuthorizedIDs, t.PlannedStart, t.PlannedEnd,
		t.PlannedHours, t.RecurrenceMask, t.PublishAt, t.CloseEndOfDay, t.Status, t.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *boardRepository) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	var t domain.Task
	err := r.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id=$1`, id).Scan(
		&t.ID, &t.CostCenterID, &t.ProjectID, &t.Name, &t.Guidance, &t.AuthorizedIDs,
		&t.PlannedStart, &t.PlannedEnd, &t.PlannedHours, &t.RecurrenceMask, &t.PublishAt,
		&t.CloseEndOfDay, &t.Status, &t.CreatedByID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *boardRepository) ListTasks(ctx context.Context, costCenterID string, statuses []domain.TaskStatus) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE cost_center_id=$1`
	args := []any{costCenterID}
	if len(statuses) > 0 {
		args = append(args, statuses)
		query += ` AND status = ANY($2)`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(
			&t.ID, &t.CostCenterID, &t.ProjectID, &t.Name, &t.Guidance, &t.AuthorizedIDs,
			&t.PlannedStart, &t.PlannedEnd, &t.PlannedHours, &t.RecurrenceMask, &t.PublishAt,
			&t.CloseEndOfDay, &t.Status, &t.CreatedByID, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
