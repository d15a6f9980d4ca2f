// manager_test.go - Tests for storage layer
package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
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

func TestNewLocalStore(t *testing.T) {
	t.Run("creates upload directory", func(t *testing.T) {
		uploadDir := filepath.Join(t.TempDir(), "uploads", "images")

		store, err := NewLocalStore(uploadDir)
		require.NoError(t, err)
		assert.Equal(t, uploadDir, store.uploadDir)

		_, err = os.Stat(uploadDir)
		assert.NoError(t, err)
	})
}

func TestLocalStore_Save(t *testing.T) {
	t.Run("saves file from reader", func(t *testing.T) {
		store := createTestStore(t)

		content := "not really a png"
		info, err := store.Save("scan.png", "image/png", strings.NewReader(content))
		require.NoError(t, err)

		assert.NotEmpty(t, info.ID)
		assert.Equal(t, "scan.png", info.Name)
		assert.Equal(t, "image/png", info.ContentType)
		assert.Equal(t, int64(len(content)), info.Size)
		assert.Equal(t, "uploaded", info.Status)

		data, err := os.ReadFile(filepath.Join(store.uploadDir, info.ID))
		require.NoError(t, err)
		assert.Equal(t, content, string(data))
	})

	t.Run("saves binary content", func(t *testing.T) {
		store := createTestStore(t)

		data := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
		info, err := store.Save("bytes.png", "image/png", bytes.NewReader(data))
		require.NoError(t, err)

		saved, err := os.ReadFile(filepath.Join(store.uploadDir, info.ID))
		require.NoError(t, err)
		assert.True(t, bytes.Equal(saved, data))
	})

	t.Run("saves empty file", func(t *testing.T) {
		store := createTestStore(t)

		info, err := store.Save("empty.jpg", "image/jpeg", strings.NewReader(""))
		require.NoError(t, err)
		assert.Zero(t, info.Size)
	})
}

func TestLocalStore_Get(t *testing.T) {
	store := createTestStore(t)

	info, err := store.Save("a.png", "image/png", strings.NewReader("x"))
	require.NoError(t, err)

	got, err := store.Get(info.ID)
	require.NoError(t, err)
	assert.Equal(t, info, got)

	_, err = store.Get("non-existent-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_List(t *testing.T) {
	t.Run("sorts by upload time descending and limits", func(t *testing.T) {
		store := createTestStore(t)

		ids := make([]string, 0, 4)
		for i := 0; i < 4; i++ {
			info, err := store.Save("file.png", "image/png", strings.NewReader("x"))
			require.NoError(t, err)
			ids = append(ids, info.ID)
			time.Sleep(5 * time.Millisecond)
		}

		all, err := store.List(0)
		require.NoError(t, err)
		assert.Len(t, all, 4)
		assert.Equal(t, ids[3], all[0].ID)

		limited, err := store.List(2)
		require.NoError(t, err)
		assert.Len(t, limited, 2)
	})
}

func TestLocalStore_Delete(t *testing.T) {
	store := createTestStore(t)

	info, err := store.Save("a.png", "image/png", strings.NewReader("x"))
	require.NoError(t, err)

	path, err := store.GetFilePath(info.ID)
	require.NoError(t, err)

	require.NoError(t, store.Delete(info.ID))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, store.Delete(info.ID), ErrNotFound)
	_, err = store.GetFilePath(info.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
