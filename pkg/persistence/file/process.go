package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/orgflowhq/orgflow/pkg/models"
	"github.com/orgflowhq/orgflow/pkg/persistence"
)

const (
	processesDir      = "processes"
	organizationsFile = "organizations.json"
)

// processDocument is the on-disk shape of a process; steps are stored in
// their durable record form.
type processDocument struct {
	ID             string                   `json:"id"`
	OrganizationID string                   `json:"organization_id"`
	Title          string                   `json:"title"`
	Steps          []persistence.StepRecord `json:"steps"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

// ProcessRepository stores each process as one JSON document.
type ProcessRepository struct {
	store *store
}

func (r *ProcessRepository) ListProcesses(_ context.Context, organizationID string) ([]*models.Process, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	entries, err := os.ReadDir(r.store.path(processesDir))
	if os.IsNotExist(err) {
		return []*models.Process{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read processes directory: %w", err)
	}

	processes := make([]*models.Process, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		var doc processDocument
		if err := r.store.readCollection(filepath.Join(processesDir, entry.Name()), &doc); err != nil {
			return nil, err
		}

		if doc.OrganizationID == organizationID {
			processes = append(processes, documentToProcess(&doc))
		}
	}

	sort.Slice(processes, func(i, j int) bool {
		return processes[i].UpdatedAt.After(processes[j].UpdatedAt)
	})

	return processes, nil
}

func (r *ProcessRepository) ProcessByID(_ context.Context, id string) (*models.Process, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	doc, err := r.readLocked(id)
	if err != nil {
		return nil, err
	}

	return documentToProcess(doc), nil
}

func (r *ProcessRepository) readLocked(id string) (*processDocument, error) {
	data, err := os.ReadFile(r.store.path(processesDir, id+".json"))
	if os.IsNotExist(err) {
		return nil, persistence.ErrProcessNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read process %s: %w", id, err)
	}

	var doc processDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode process %s: %w", id, err)
	}

	return &doc, nil
}

// SaveProcess writes the full record. Steps must already be resolved;
// EncodeSteps rejects any remaining draft reference before the file is
// touched.
func (r *ProcessRepository) SaveProcess(_ context.Context, process *models.Process) error {
	records, err := persistence.EncodeSteps(process.Steps)
	if err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

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

	doc := processDocument{
		ID:             process.ID,
		OrganizationID: process.OrganizationID,
		Title:          process.Title,
		Steps:          records,
		CreatedAt:      process.CreatedAt,
		UpdatedAt:      process.UpdatedAt,
	}

	return r.store.writeCollection(filepath.Join(processesDir, process.ID+".json"), doc)
}

func (r *ProcessRepository) DeleteProcess(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	err := os.Remove(r.store.path(processesDir, id+".json"))
	if os.IsNotExist(err) {
		return persistence.ErrProcessNotFound
	}

	if err != nil {
		return fmt.Errorf("failed to delete process %s: %w", id, err)
	}

	return nil
}

func documentToProcess(doc *processDocument) *models.Process {
	return &models.Process{
		ID:             doc.ID,
		OrganizationID: doc.OrganizationID,
		Title:          doc.Title,
		Steps:          persistence.DecodeSteps(doc.Steps),
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
}

// OrganizationRepository stores all organizations in one JSON collection.
type OrganizationRepository struct {
	store *store
}

func (r *OrganizationRepository) OrganizationByID(_ context.Context, id string) (*models.Organization, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var all []*models.Organization
	if err := r.store.readCollection(organizationsFile, &all); err != nil {
		return nil, err
	}

	for _, organization := range all {
		if organization.ID == id {
			return organization, nil
		}
	}

	return nil, persistence.ErrOrganizationNotFound
}

func (r *OrganizationRepository) SaveOrganization(_ context.Context, organization *models.Organization) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var all []*models.Organization
	if err := r.store.readCollection(organizationsFile, &all); err != nil {
		return err
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

	for i, existing := range all {
		if existing.ID == organization.ID {
			all[i] = organization

			return r.store.writeCollection(organizationsFile, all)
		}
	}

	all = append(all, organization)

	return r.store.writeCollection(organizationsFile, all)
}
