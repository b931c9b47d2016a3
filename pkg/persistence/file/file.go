// Package file provides file-based persistence for the orchestration engine.
// It is used by unit tests and local development; production deployments use
// the postgresql implementation.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentorhq/agentor/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root         string
	memoryRepo   *MemoryRepository
	policyRepo   *PolicyRepository
	taskRepo     *TaskRepository
	workflowRepo *WorkflowRepository
	logRepo      *LogRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:         cleanRoot,
		memoryRepo:   NewMemoryRepository(cleanRoot),
		policyRepo:   NewPolicyRepository(cleanRoot),
		taskRepo:     NewTaskRepository(cleanRoot),
		workflowRepo: NewWorkflowRepository(cleanRoot),
		logRepo:      NewLogRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) MemoryRepository() persistence.MemoryRepository {
	return fp.memoryRepo
}

func (fp *Persistence) PolicyRepository() persistence.PolicyRepository {
	return fp.policyRepo
}

func (fp *Persistence) TaskRepository() persistence.TaskRepository {
	return fp.taskRepo
}

func (fp *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return fp.workflowRepo
}

func (fp *Persistence) LogRepository() persistence.LogRepository {
	return fp.logRepo
}

// writeEntity marshals an entity to <root>/<dir>/<id>.json, creating the
// directory on first use.
func writeEntity(root, dir, id string, entity any) error {
	entityDir := filepath.Join(root, dir)

	err := os.MkdirAll(entityDir, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	data, err := json.MarshalIndent(entity, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", dir, err)
	}

	err = os.WriteFile(filepath.Join(entityDir, id+".json"), data, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write %s file: %w", dir, err)
	}

	return nil
}

// readEntity unmarshals <root>/<dir>/<id>.json into entity. It reports
// os.ErrNotExist unchanged so callers can map it to a domain not-found error.
func readEntity(root, dir, id string, entity any) error {
	data, err := os.ReadFile(filepath.Join(root, dir, id+".json"))
	if err != nil {
		return err
	}

	err = json.Unmarshal(data, entity)
	if err != nil {
		return fmt.Errorf("failed to unmarshal %s %s: %w", dir, id, err)
	}

	return nil
}

// listEntityIDs returns the ids of all stored entities in <root>/<dir>.
func listEntityIDs(root, dir string) ([]string, error) {
	entityDir := filepath.Join(root, dir)

	if _, err := os.Stat(entityDir); os.IsNotExist(err) {
		return []string{}, nil
	}

	files, err := fs.Glob(os.DirFS(entityDir), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s files: %w", dir, err)
	}

	ids := make([]string, 0, len(files))
	for _, file := range files {
		ids = append(ids, strings.TrimSuffix(file, ".json"))
	}

	return ids, nil
}
