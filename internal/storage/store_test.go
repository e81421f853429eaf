package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return store
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestNewLocalStore(t *testing.T) {
	uploadDir := filepath.Join(t.TempDir(), "uploads")
	_, err := NewLocalStore(uploadDir)
	require.NoError(t, err)

	_, err = os.Stat(uploadDir)
	assert.NoError(t, err, "upload directory should be created")
}

func TestLocalStore_Save(t *testing.T) {
	t.Run("saves file from reader", func(t *testing.T) {
		store := createTestStore(t)
		content := "M10,conveyor\n"

		info, err := store.Save("comments.CSV", strings.NewReader(content))
		require.NoError(t, err)
		assert.NotEmpty(t, info.ID)
		assert.Equal(t, "comments.CSV", info.Name)
		assert.Equal(t, int64(len(content)), info.Size)
		assert.Equal(t, StatusUploaded, info.Status)

		path, err := store.GetFilePath(info.ID)
		require.NoError(t, err)
		assert.Equal(t, ".csv", filepath.Ext(path))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, content, string(data))
	})

	t.Run("strips directories from the name", func(t *testing.T) {
		store := createTestStore(t)
		info, err := store.Save("../../etc/MAIN.csv", strings.NewReader("x"))
		require.NoError(t, err)
		assert.Equal(t, "MAIN.csv", info.Name)
	})

	t.Run("read error removes the partial file", func(t *testing.T) {
		store := createTestStore(t)
		_, err := store.Save("bad.csv", failingReader{})
		require.Error(t, err)

		entries, err := os.ReadDir(store.uploadDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := createTestStore(t).Save("  ", strings.NewReader("x"))
		assert.Error(t, err)
	})
}

func TestLocalStore_GetAndStatus(t *testing.T) {
	store := createTestStore(t)
	info, err := store.Save("a.csv", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, store.SetStatus(info.ID, StatusImported))
	got, err := store.Get(info.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusImported, got.Status)

	got.Status = "mutated"
	again, _ := store.Get(info.ID)
	assert.Equal(t, StatusImported, again.Status, "Get returns a copy")

	_, err = store.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.SetStatus("missing", StatusError), ErrNotFound)
	_, err = store.GetFilePath("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_List(t *testing.T) {
	store := createTestStore(t)
	for _, name := range []string{"a.csv", "b.csv", "c.csv"} {
		_, err := store.Save(name, strings.NewReader(name))
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	all, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c.csv", all[0].Name)

	two, err := store.List(2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestLocalStore_Delete(t *testing.T) {
	store := createTestStore(t)
	info, err := store.Save("a.csv", strings.NewReader("x"))
	require.NoError(t, err)
	path, _ := store.GetFilePath(info.ID)

	require.NoError(t, store.Delete(info.ID))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.ErrorIs(t, store.Delete(info.ID), ErrNotFound)
}

func TestLocalStore_ConcurrentSaves(t *testing.T) {
	store := createTestStore(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Save("p.csv", strings.NewReader("0,,LD,X0"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := store.List(0)
	require.NoError(t, err)
	assert.Len(t, list, 20)
}
