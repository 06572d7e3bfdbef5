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

// ProcessRepository handles process-related database operations. Steps are
// stored as a JSONB column in their durable record shape.
type ProcessRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewProcessRepository creates a new process repository.
func NewProcessRepository(db *sql.DB, logger *slog.Logger) *ProcessRepository {
	return &ProcessRepository{db: db, logger: logger}
}

func (r *ProcessRepository) ListProcesses(ctx context.Context, organizationID string) ([]*models.Process, error) {
	query := `
		SELECT
			id
		  , organization_id
		  , title
		  , steps
		  , created_at
		  , updated_at
		FROM processes
		WHERE organization_id = $1
		ORDER BY updated_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query processes: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	processes := make([]*models.Process, 0)

	for rows.Next() {
		process, err := scanProcess(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan process: %w", err)
		}

		processes = append(processes, process)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating processes: %w", err)
	}

	return processes, nil
}

func (r *ProcessRepository) ProcessByID(ctx context.Context, id string) (*models.Process, error) {
	query := `
		SELECT
			id
		  , organization_id
		  , title
		  , steps
		  , created_at
		  , updated_at
		FROM processes
		WHERE id = $1
	`

	process, err := scanProcess(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrProcessNotFound
		}

		return nil, fmt.Errorf("failed to scan process: %w", err)
	}

	return process, nil
}

// SaveProcess upserts the whole record. Draft-bearing steps are rejected
// before the database is touched.
func (r *ProcessRepository) SaveProcess(ctx context.Context, process *models.Process) error {
	records, err := persistence.EncodeSteps(process.Steps)
	if err != nil {
		return err
	}

	stepsJSON, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal steps: %w", err)
	}

	now := time.Now().UTC()

	if process.CreatedAt.IsZero() {
		process.CreatedAt = now
	}

	process.UpdatedAt = now

	if process.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate process ID: %w", err)
		}

		process.ID = id.String()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO processes (id, organization_id, title, steps, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			steps = EXCLUDED.steps,
			updated_at = EXCLUDED.updated_at
	`, process.ID, process.OrganizationID, process.Title, stepsJSON, process.CreatedAt, process.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save process: %w", err)
	}

	return nil
}

func (r *ProcessRepository) DeleteProcess(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM processes WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete process: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}

	if affected == 0 {
		return persistence.ErrProcessNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProcess(row rowScanner) (*models.Process, error) {
	var (
		process   models.Process
		stepsJSON []byte
	)

	err := row.Scan(
		&process.ID,
		&process.OrganizationID,
		&process.Title,
		&stepsJSON,
		&process.CreatedAt,
		&process.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	var records []persistence.StepRecord
	if err := json.Unmarshal(stepsJSON, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
	}

	process.Steps = persistence.DecodeSteps(records)

	return &process, nil
}
