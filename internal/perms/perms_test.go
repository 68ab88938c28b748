package perms

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.fbx")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))

	require.NoError(t, SetReadOnly(path, true))
	assert.True(t, IsReadOnly(path))

	require.NoError(t, SetReadOnly(path, false))
	assert.False(t, IsReadOnly(path))

	// Idempotent on an already-writable file.
	require.NoError(t, SetReadOnly(path, false))
	assert.False(t, IsReadOnly(path))
}

func TestSetReadOnly_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.fbx")
	assert.NoError(t, SetReadOnly(path, true))
	assert.False(t, IsReadOnly(path))
}
