// Package file provides a file-based persistence implementation used for
// development and tests. All collections are JSON documents under a root
// directory; a single mutex serializes access.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/orgflowhq/orgflow/pkg/persistence"
)

// Persistence implements persistence.Persistence on the file system.
type Persistence struct {
	store *store

	departments   *DepartmentRepository
	roles         *RoleRepository
	processes     *ProcessRepository
	organizations *OrganizationRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
// A "file://" prefix is stripped so connection URLs work unchanged.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	s := &store{root: cleanRoot}

	return &Persistence{
		store:         s,
		departments:   &DepartmentRepository{store: s},
		roles:         &RoleRepository{store: s},
		processes:     &ProcessRepository{store: s},
		organizations: &OrganizationRepository{store: s},
	}
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

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.store.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close is a no-op for file persistence.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// store serializes file access for all repositories of one Persistence.
type store struct {
	mu   sync.Mutex
	root string
}

func (s *store) path(parts ...string) string {
	return filepath.Join(append([]string{s.root}, parts...)...)
}

// readCollection loads a JSON collection file into out. A missing file is an
// empty collection, not an error.
func (s *store) readCollection(name string, out any) error {
	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}

	return nil
}

// writeCollection persists a JSON collection file atomically via a
// temporary file and rename.
func (s *store) writeCollection(name string, in any) error {
	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	target := s.path(name)

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", name, err)
	}

	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}

	return nil
}
