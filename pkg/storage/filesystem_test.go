package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveOpenDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	n, err := store.SaveStream("a/b.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	f, err := store.Open("a/b.pdf")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, store.Delete("a/b.pdf"))
	require.NoError(t, store.Delete("a/b.pdf"))
	_, err = store.Stat("a/b.pdf")
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStorageRejectsEscape(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.SaveStream("../outside.pdf", strings.NewReader("x"))
	assert.Error(t, err)
	assert.Empty(t, store.Path("/etc/passwd"))
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.SaveStream("old.pdf", strings.NewReader("old"))
	require.NoError(t, err)
	_, err = store.SaveStream("new.pdf", strings.NewReader("new"))
	require.NoError(t, err)
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.pdf"), past, past))

	deleted, err := store.CleanupOlderThan(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.pdf"}, deleted)
	_, err = store.Stat("new.pdf")
	assert.NoError(t, err)
}
