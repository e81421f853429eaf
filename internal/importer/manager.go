// Package importer runs file imports as asynchronous, cancellable jobs.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/plc-assistant/backend/internal/loader"
	"github.com/plc-assistant/backend/internal/models"
	"github.com/plc-assistant/backend/internal/storage"
)

// Status represents the import job status.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusImporting Status = "importing"
	StatusComplete  Status = "complete"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

var (
	ErrJobNotFound = errors.New("import job not found")
	ErrJobFinished = errors.New("import job already finished")
)

// Job is one asynchronous import of uploaded files into a store collection.
type Job struct {
	ID          string               `json:"id"`
	Kind        models.ImportKind    `json:"kind"`
	Files       []models.FileInfo    `json:"files"`
	Status      Status               `json:"status"`
	Report      *models.ImportReport `json:"report,omitempty"`
	Error       string               `json:"error,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	CompletedAt *time.Time           `json:"completedAt,omitempty"`
}

// Finished reports whether the job reached a terminal status.
func (j Job) Finished() bool {
	return j.Status == StatusComplete || j.Status == StatusError || j.Status == StatusCancelled
}

// Importer is the part of the loader a job needs.
type Importer interface {
	ImportFiles(ctx context.Context, kind models.ImportKind, files []loader.File) (models.ImportReport, error)
}

type entry struct {
	job    Job
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager handles async import jobs.
type Manager struct {
	mu       sync.RWMutex
	jobs     map[string]*entry
	importer Importer
	files    storage.Store
	logger   *slog.Logger
}

// NewManager creates a job manager importing files kept in files.
func NewManager(importer Importer, files storage.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		jobs:     make(map[string]*entry),
		importer: importer,
		files:    files,
		logger:   logger.With("component", "importer"),
	}
}

// StartJob begins importing the stored files fileIDs as kind. Unknown kinds
// and unknown file IDs are rejected before a job is created.
func (m *Manager) StartJob(kind models.ImportKind, fileIDs []string) (Job, error) {
	if !kind.Valid() {
		return Job{}, fmt.Errorf("%w: %q", loader.ErrUnknownKind, kind)
	}
	if len(fileIDs) == 0 {
		return Job{}, errors.New("no files to import")
	}

	infos := make([]models.FileInfo, 0, len(fileIDs))
	for _, id := range fileIDs {
		info, err := m.files.Get(id)
		if err != nil {
			return Job{}, err
		}
		infos = append(infos, *info)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &entry{
		job: Job{
			ID:        uuid.New().String(),
			Kind:      kind,
			Files:     infos,
			Status:    StatusQueued,
			CreatedAt: time.Now(),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	m.mu.Lock()
	m.jobs[e.job.ID] = e
	job := e.job
	m.mu.Unlock()

	go m.processJob(ctx, e)
	return job, nil
}

// GetJob returns a snapshot of a job.
func (m *Manager) GetJob(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return e.job, true
}

// ListJobs returns every known job, newest first.
func (m *Manager) ListJobs() []Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jobs := make([]Job, 0, len(m.jobs))
	for _, e := range m.jobs {
		jobs = append(jobs, e.job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs
}

// CancelJob stops a running job. The store keeps its previous contents.
func (m *Manager) CancelJob(id string) error {
	m.mu.RLock()
	e, ok := m.jobs[id]
	var finished bool
	if ok {
		finished = e.job.Finished()
	}
	m.mu.RUnlock()

	if !ok {
		return ErrJobNotFound
	}
	if finished {
		return ErrJobFinished
	}
	e.cancel()
	return nil
}

// Wait blocks until the job finishes or ctx is done, and returns its final state.
func (m *Manager) Wait(ctx context.Context, id string) (Job, error) {
	m.mu.RLock()
	e, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return Job{}, ErrJobNotFound
	}
	select {
	case <-e.done:
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
	job, _ := m.GetJob(id)
	return job, nil
}

// Shutdown cancels every running job and waits for them to stop.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.RLock()
	entries := make([]*entry, 0, len(m.jobs))
	for _, e := range m.jobs {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	for _, e := range entries {
		e.cancel()
	}
	for _, e := range entries {
		select {
		case <-e.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (m *Manager) processJob(ctx context.Context, e *entry) {
	defer close(e.done)
	defer e.cancel()

	m.mu.Lock()
	e.job.Status = StatusImporting
	jobID, kind, infos := e.job.ID, e.job.Kind, e.job.Files
	m.mu.Unlock()

	log := m.logger.With("job", jobID[:8], "kind", kind)
	log.Info("import job started", "files", len(infos))

	files := make([]loader.File, 0, len(infos))
	for _, info := range infos {
		path, err := m.files.GetFilePath(info.ID)
		if err != nil {
			m.finish(e, StatusError, nil, err)
			log.Warn("import job failed", "error", err)
			return
		}
		files = append(files, loader.File{Name: info.Name, Path: path})
	}

	report, err := m.importer.ImportFiles(ctx, kind, files)
	switch {
	case err != nil && ctx.Err() != nil:
		m.finish(e, StatusCancelled, nil, ctx.Err())
		log.Info("import job cancelled")
	case err != nil:
		m.markFiles(infos, storage.StatusError)
		m.finish(e, StatusError, nil, err)
		log.Warn("import job failed", "error", err)
	default:
		m.markFiles(infos, storage.StatusImported)
		m.finish(e, StatusComplete, &report, nil)
		log.Info("import job complete", "imported", report.Imported, "skipped", report.Skipped)
	}
}

func (m *Manager) markFiles(infos []models.FileInfo, status string) {
	for _, info := range infos {
		if err := m.files.SetStatus(info.ID, status); err != nil {
			m.logger.Warn("updating file status", "file", info.ID, "error", err)
		}
	}
}

func (m *Manager) finish(e *entry, status Status, report *models.ImportReport, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.job.Status = status
	e.job.Report = report
	if err != nil {
		e.job.Error = err.Error()
	}
	now := time.Now()
	e.job.CompletedAt = &now
}

// CleanupOldJobs removes finished jobs completed more than maxAge ago.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for id, e := range m.jobs {
		if e.job.Finished() && e.job.CompletedAt != nil && e.job.CompletedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed
}
