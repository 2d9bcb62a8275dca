package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTempWorkspace(t *testing.T) {
	root := CreateTempWorkspace(t)

	info, err := os.Stat(filepath.Join(root, "node_modules"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateStandardProject(t *testing.T) {
	root := CreateTempWorkspace(t)
	dir := CreateStandardProject(t, root, "widgets")

	assert.Equal(t, filepath.Join(root, "widgets"), dir)
	assert.Equal(t,
		[]string{"package.json", "src/index.ts", "tsconfig.json"},
		ListFiles(t, dir))
}

func TestWriteFileCreatesParents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "c.txt")

	WriteFile(t, path, "hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestCreateTestWorkspace(t *testing.T) {
	ws := CreateTestWorkspace("/repo")

	assert.Equal(t, "/repo", ws.Root)
	assert.Equal(t, "/repo", ws.ProjectRoot)
	assert.Equal(t, []string{"node_modules"}, ws.Resolve.Directories)
}

func TestAssertNotExists(t *testing.T) {
	AssertNotExists(t, filepath.Join(t.TempDir(), "missing"))
}
