package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/orgflowhq/orgflow/pkg/models"
	"github.com/orgflowhq/orgflow/pkg/persistence"
)

// OrganizationRepository handles organization-related database operations.
type OrganizationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewOrganizationRepository creates a new organization repository.
func NewOrganizationRepository(db *sql.DB, logger *slog.Logger) *OrganizationRepository {
	return &OrganizationRepository{db: db, logger: logger}
}

func (r *OrganizationRepository) OrganizationByID(ctx context.Context, id string) (*models.Organization, error) {
	query := `
		SELECT
			id
		  , name
		  , owner_id
		  , managers
		  , members
		  , created_at
		  , updated_at
		FROM organizations
		WHERE id = $1
	`

	var (
		organization models.Organization
		managersJSON []byte
		membersJSON  []byte
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&organization.ID,
		&organization.Name,
		&organization.OwnerID,
		&managersJSON,
		&membersJSON,
		&organization.CreatedAt,
		&organization.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrOrganizationNotFound
		}

		return nil, fmt.Errorf("failed to scan organization: %w", err)
	}

	if err := json.Unmarshal(managersJSON, &organization.Managers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal managers: %w", err)
	}

	if err := json.Unmarshal(membersJSON, &organization.Members); err != nil {
		return nil, fmt.Errorf("failed to unmarshal members: %w", err)
	}

	return &organization, nil
}

func (r *OrganizationRepository) SaveOrganization(ctx context.Context, organization *models.Organization) error {
	managersJSON, err := json.Marshal(organization.Managers)
	if err != nil {
		return fmt.Errorf("failed to marshal managers: %w", err)
	}

	membersJSON, err := json.Marshal(organization.Members)
	if err != nil {
		return fmt.Errorf("failed to marshal members: %w", err)
	}

	now := time.Now().UTC()

	if organization.CreatedAt.IsZero() {
		organization.CreatedAt = now
	}

	organization.UpdatedAt = now

	if organization.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate organization ID: %w", err)
		}

		organization.ID = id.String()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO organizations (id, name, owner_id, managers, members, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			owner_id = EXCLUDED.owner_id,
			managers = EXCLUDED.managers,
			members = EXCLUDED.members,
			updated_at = EXCLUDED.updated_at
	`, organization.ID, organization.Name, organization.OwnerID, managersJSON, membersJSON, organization.CreatedAt, organization.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save organization: %w", err)
	}

	return nil
}
