// Package postgresql provides the PostgreSQL persistence implementation.
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
	"github.com/orgflowhq/orgflow/pkg/persistence"
	"github.com/orgflowhq/orgflow/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger

	departments   *DepartmentRepository
	roles         *RoleRepository
	processes     *ProcessRepository
	organizations *OrganizationRepository
}

// NewPersistence connects to PostgreSQL and runs migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())
	if err := migrationManager.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:            database,
		logger:        logger,
		departments:   NewDepartmentRepository(database, logger),
		roles:         NewRoleRepository(database, logger),
		processes:     NewProcessRepository(database, logger),
		organizations: NewOrganizationRepository(database, logger),
	}, nil
}

func (p *Persistence) Departments() persistence.DepartmentRepository {
	return p.departments
}

func (p *Persistence) Roles() persistence.RoleRepository {
	return p.roles
}

func (p *Persistence) Processes() persistence.ProcessRepository {
	return p.processes
}

func (p *Persistence) Organizations() persistence.OrganizationRepository {
	return p.organizations
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// PostgreSQL error codes the directory repositories translate into the
// errors the draft resolution engine surfaces to callers.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error

	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error

	return errors.As(err, &pqErr) && string(pqErr.Code) == foreignKeyViolation
}
