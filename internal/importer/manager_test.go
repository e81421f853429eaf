package importer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plc-assistant/backend/internal/loader"
	"github.com/plc-assistant/backend/internal/models"
	"github.com/plc-assistant/backend/internal/storage"
	"github.com/plc-assistant/backend/internal/store"
	"github.com/plc-assistant/backend/internal/testutil"
)

func setup(t *testing.T) (*Manager, *store.PlcDataStore, *storage.LocalStore) {
	t.Helper()
	files, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	s := store.New()
	return NewManager(loader.New(s, nil), files, nil), s, files
}

func waitJob(t *testing.T, m *Manager, id string) Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err := m.Wait(ctx, id)
	require.NoError(t, err)
	return job
}

func TestManager_ImportComplete(t *testing.T) {
	m, s, files := setup(t)
	info, err := files.Save("MAIN.csv", strings.NewReader(testutil.SampleProgram))
	require.NoError(t, err)

	job, err := m.StartJob(models.ImportPrograms, []string{info.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)

	final := waitJob(t, m, job.ID)
	assert.Equal(t, StatusComplete, final.Status)
	require.NotNil(t, final.Report)
	assert.Equal(t, 6, final.Report.Imported)
	assert.NotNil(t, final.CompletedAt)

	_, ok := s.Program("MAIN")
	assert.True(t, ok)

	stored, err := files.Get(info.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.StatusImported, stored.Status)

	assert.ErrorIs(t, m.CancelJob(job.ID), ErrJobFinished)
	assert.Len(t, m.ListJobs(), 1)
}

func TestManager_ImportError(t *testing.T) {
	m, _, files := setup(t)
	info, err := files.Save("blocks.yaml", strings.NewReader("functionBlocks: [unterminated"))
	require.NoError(t, err)

	job, err := m.StartJob(models.ImportFunctionBlocks, []string{info.ID})
	require.NoError(t, err)

	final := waitJob(t, m, job.ID)
	assert.Equal(t, StatusError, final.Status)
	assert.NotEmpty(t, final.Error)

	stored, _ := files.Get(info.ID)
	assert.Equal(t, storage.StatusError, stored.Status)
}

func TestManager_StartJobValidation(t *testing.T) {
	m, _, _ := setup(t)

	_, err := m.StartJob("tags", []string{"x"})
	assert.ErrorIs(t, err, loader.ErrUnknownKind)

	_, err = m.StartJob(models.ImportComments, nil)
	assert.Error(t, err)

	_, err = m.StartJob(models.ImportComments, []string{"missing"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, m.CancelJob("missing"), ErrJobNotFound)
	_, err = m.Wait(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

// blockingImporter waits for cancellation.
type blockingImporter struct {
	started chan struct{}
}

func (b *blockingImporter) ImportFiles(ctx context.Context, kind models.ImportKind, _ []loader.File) (models.ImportReport, error) {
	close(b.started)
	<-ctx.Done()
	return models.ImportReport{Kind: kind}, ctx.Err()
}

func TestManager_Cancel(t *testing.T) {
	files, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	info, err := files.Save("comments.csv", strings.NewReader(testutil.SampleComments))
	require.NoError(t, err)

	imp := &blockingImporter{started: make(chan struct{})}
	m := NewManager(imp, files, nil)

	job, err := m.StartJob(models.ImportComments, []string{info.ID})
	require.NoError(t, err)
	<-imp.started

	require.NoError(t, m.CancelJob(job.ID))
	final := waitJob(t, m, job.ID)
	assert.Equal(t, StatusCancelled, final.Status)

	stored, _ := files.Get(info.ID)
	assert.Equal(t, storage.StatusUploaded, stored.Status)
}

func TestManager_CleanupOldJobs(t *testing.T) {
	m, _, files := setup(t)
	info, err := files.Save("comments.csv", strings.NewReader(testutil.SampleComments))
	require.NoError(t, err)

	job, err := m.StartJob(models.ImportComments, []string{info.ID})
	require.NoError(t, err)
	waitJob(t, m, job.ID)

	assert.Equal(t, 0, m.CleanupOldJobs(time.Hour))
	assert.Equal(t, 1, m.CleanupOldJobs(0))
	_, ok := m.GetJob(job.ID)
	assert.False(t, ok)
}

func TestManager_Shutdown(t *testing.T) {
	files, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	info, err := files.Save("comments.csv", strings.NewReader("M1,a\n"))
	require.NoError(t, err)

	imp := &blockingImporter{started: make(chan struct{})}
	m := NewManager(imp, files, nil)
	job, err := m.StartJob(models.ImportComments, []string{info.ID})
	require.NoError(t, err)
	<-imp.started

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))

	final, _ := m.GetJob(job.ID)
	assert.Equal(t, StatusCancelled, final.Status)
}
