package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// UserRepository defines persistence access for identity records.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByCPF(ctx context.Context, cpf string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// ReplaceGroups persists the projected group memberships for a user.
	ReplaceGroups(ctx context.Context, userID string, groups []string) error
	// ListAdminish returns active users that are superusers or members of an
	// admin-ish group. They form the fallback notification recipient set.
	ListAdminish(ctx context.Context) ([]domain.User, error)
	// ListByManagementGroup returns active users sharing a management group tag.
	ListByManagementGroup(ctx context.Context, group string) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, cpf, full_name, email, birth_date, sector, position, profile,
        management_group, password_hash, is_superuser, is_active, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (cpf, full_name, email, birth_date, sector, position, profile,
            management_group, password_hash, is_superuser, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		user.CPF,
		user.FullName,
		user.Email,
		user.BirthDate,
		user.Sector,
		user.Position,
		user.Profile,
		user.ManagementGroup,
		user.PasswordHash,
		user.IsSuperuser,
		user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET full_name=$1, email=$2, birth_date=$3, sector=$4, position=$5,
            profile=$6, management_group=$7, is_superuser=$8, is_active=$9, updated_at=NOW()
        WHERE id=$10`
	cmd, err := r.pool.Exec(ctx, query,
		user.FullName,
		user.Email,
		user.BirthDate,
		user.Sector,
		user.Position,
		user.Profile,
		user.ManagementGroup,
		user.IsSuperuser,
		user.IsActive,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`,
		passwordHash, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByCPF(ctx context.Context, cpf string) (*domain.User, error) {
	return r.fetchOne(ctx, `SELECT `+userColumns+` FROM users WHERE cpf=$1`, cpf)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchOne(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email)=LOWER($1)`, email)
}

func (r *userRepository) fetchOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.CPF,
		&user.FullName,
		&user.Email,
		&user.BirthDate,
		&user.Sector,
		&user.Position,
		&user.Profile,
		&user.ManagementGroup,
		&user.PasswordHash,
		&user.IsSuperuser,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := r.loadGroups(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) loadGroups(ctx context.Context, user *domain.User) error {
	rows, err := r.pool.Query(ctx,
		`SELECT group_name FROM user_groups WHERE user_id=$1 ORDER BY group_name`, user.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return err
		}
		user.Groups = append(user.Groups, g)
	}
	return rows.Err()
}

func (r *userRepository) ReplaceGroups(ctx context.Context, userID string, groups []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM user_groups WHERE user_id=$1`, userID); err != nil {
		return err
	}
	for _, g := range groups {
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_groups (user_id, group_name) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
			userID, g); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *userRepository) ListAdminish(ctx context.Context) ([]domain.User, error) {
	const query = `
        SELECT DISTINCT ` + userColumns + `
        FROM users u
        WHERE u.is_active
          AND (u.is_superuser
               OR u.profile = 'ADMIN'
               OR EXISTS (
                     SELECT 1 FROM user_groups g
                     WHERE g.user_id = u.id
                       AND g.group_name IN ('Administrativo','Atendimento','Gestor','Suporte','ADMIN','Admin','ADM')))
        ORDER BY full_name`
	return r.list(ctx, query)
}

func (r *userRepository) ListByManagementGroup(ctx context.Context, group string) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users u
        WHERE u.is_active AND u.management_group=$1 ORDER BY full_name`
	return r.list(ctx, query, group)
}

func (r *userRepository) list(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.CPF,
			&user.FullName,
			&user.Email,
			&user.BirthDate,
			&user.Sector,
			&user.Position,
			&user.Profile,
			&user.ManagementGroup,
			&user.PasswordHash,
			&user.IsSuperuser,
			&user.IsActive,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}
