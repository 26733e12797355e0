// Package file provides file-based persistence for development and tests.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aferraz/driveline/pkg/persistence"
)

// Persistence implements persistence.Persistence on top of one JSON file per
// entity under root/{accounts,automations,executions}.
type Persistence struct {
	root           string
	automationRepo *AutomationRepository
	executionRepo  *ExecutionRepository
	accountRepo    *AccountRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
// A "file://" prefix is stripped so database-url style flags work unchanged.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	// One lock shared by every repository: the credit debit reads and writes
	// the same account file and must not interleave with saves.
	mu := &sync.RWMutex{}

	return &Persistence{
		root:           cleanRoot,
		automationRepo: &AutomationRepository{root: cleanRoot, mu: mu},
		executionRepo:  &ExecutionRepository{root: cleanRoot, mu: mu},
		accountRepo:    &AccountRepository{root: cleanRoot, mu: mu},
	}
}

func (p *Persistence) AutomationRepository() persistence.AutomationRepository {
	return p.automationRepo
}

func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return p.executionRepo
}

func (p *Persistence) AccountRepository() persistence.AccountRepository {
	return p.accountRepo
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. Nothing to do for files.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func entityPath(root, collection, id string) string {
	return filepath.Join(root, collection, id+".json")
}

func readEntity(root, collection, id string, out any) error {
	data, err := os.ReadFile(entityPath(root, collection, id))
	if err != nil {
		return err
	}

	return json.Unmarshal(data, out)
}

func writeEntity(root, collection, id string, in any) error {
	dir := filepath.Join(root, collection)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", collection, err)
	}

	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", collection, id, err)
	}

	return os.WriteFile(entityPath(root, collection, id), data, 0o644)
}

func listEntityIDs(root, collection string) ([]string, error) {
	dir := filepath.Join(root, collection)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	files, err := fs.Glob(os.DirFS(dir), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s files: %w", collection, err)
	}

	ids := make([]string, 0, len(files))
	for _, file := range files {
		ids = append(ids, strings.TrimSuffix(file, ".json"))
	}

	return ids, nil
}

func notExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
