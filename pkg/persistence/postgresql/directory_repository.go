package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/orgflowhq/orgflow/pkg/models"
	"github.com/orgflowhq/orgflow/pkg/persistence"
)

// DepartmentRepository handles department-related database operations.
type DepartmentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewDepartmentRepository creates a new department repository.
func NewDepartmentRepository(db *sql.DB, logger *slog.Logger) *DepartmentRepository {
	return &DepartmentRepository{db: db, logger: logger}
}

func (r *DepartmentRepository) ListDepartments(ctx context.Context, organizationID string) ([]*models.Department, error) {
	query := `
		SELECT
			id
		  , organization_id
		  , name
		  , color
		  , created_at
		  , updated_at
		FROM departments
		WHERE organization_id = $1
		ORDER BY LOWER(TRIM(name))
	`

	rows, err := r.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query departments: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	departments := make([]*models.Department, 0)

	for rows.Next() {
		department := &models.Department{}

		err := rows.Scan(
			&department.ID,
			&department.OrganizationID,
			&department.Name,
			&department.Color,
			&department.CreatedAt,
			&department.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}

		departments = append(departments, department)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating departments: %w", err)
	}

	return departments, nil
}

// BatchCreateDepartments inserts all rows in one transaction. A unique
// violation on the organization-scoped name index rolls the whole batch
// back and surfaces as a conflict.
func (r *DepartmentRepository) BatchCreateDepartments(ctx context.Context, organizationID string, rows []persistence.DepartmentRow) ([]*models.Department, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	created := make([]*models.Department, 0, len(rows))

	for _, row := range rows {
		var id uuid.UUID

		id, err = uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate department ID: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO departments (id, organization_id, name, color, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
		`, id.String(), organizationID, row.Name, row.Color, now)
		if err != nil {
			if isUniqueViolation(err) {
				err = persistence.NewDepartmentConflict(row.Name)
			}

			return nil, err
		}

		created = append(created, &models.Department{
			ID:             id.String(),
			OrganizationID: organizationID,
			Name:           row.Name,
			Color:          row.Color,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit department batch: %w", err)
	}

	return created, nil
}

// RoleRepository handles role-related database operations.
type RoleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRoleRepository creates a new role repository.
func NewRoleRepository(db *sql.DB, logger *slog.Logger) *RoleRepository {
	return &RoleRepository{db: db, logger: logger}
}

func (r *RoleRepository) ListRoles(ctx context.Context, departmentID string) ([]*models.Role, error) {
	query := `
		SELECT
			id
		  , department_id
		  , name
		  , color
		  , created_at
		  , updated_at
		FROM roles
		WHERE department_id = $1
		ORDER BY LOWER(TRIM(name))
	`

	rows, err := r.db.QueryContext(ctx, query, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	roles := make([]*models.Role, 0)

	for rows.Next() {
		role := &models.Role{}

		err := rows.Scan(
			&role.ID,
			&role.DepartmentID,
			&role.Name,
			&role.Color,
			&role.CreatedAt,
			&role.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}

		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roles: %w", err)
	}

	return roles, nil
}

// BatchCreateRoles inserts all rows in one transaction, after the
// departments they reference exist. A unique violation on the
// department-scoped name index rolls the whole batch back and surfaces as a
// conflict; a foreign key failure surfaces as a missing department.
func (r *RoleRepository) BatchCreateRoles(ctx context.Context, rows []persistence.RoleRow) ([]*models.Role, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	created := make([]*models.Role, 0, len(rows))

	for _, row := range rows {
		var id uuid.UUID

		id, err = uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate role ID: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO roles (id, department_id, name, color, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
		`, id.String(), row.DepartmentID, row.Name, row.Color, now)
		if err != nil {
			switch {
			case isUniqueViolation(err):
				err = persistence.NewRoleConflict(row.Name)
			case isForeignKeyViolation(err):
				err = persistence.ErrDepartmentNotFound
			}

			return nil, err
		}

		created = append(created, &models.Role{
			ID:           id.String(),
			DepartmentID: row.DepartmentID,
			Name:         row.Name,
			Color:        row.Color,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit role batch: %w", err)
	}

	return created, nil
}
