package testutils

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conneroisu/bundler/internal/config"
)

// StandardManifest is a package.json with runtime, dev and peer dependencies.
const StandardManifest = `{
  "name": "widgets",
  "version": "1.0.0",
  "dependencies": {"lodash": "^4.17.21", "preact": "^10.0.0"},
  "devDependencies": {"typescript": "^5.4.0"},
  "peerDependencies": {"react": "^18.0.0", "preact": "^10.0.0"}
}`

// StandardTSConfig is a tsconfig.json with comments and an exclude list.
const StandardTSConfig = `{
  // compiler settings
  "compilerOptions": {
    "strict": true,
    "target": "es2017", /* lowered by the bundler */
  },
  "exclude": ["node_modules", "scripts"],
}`

// CreateTempWorkspace creates an empty workspace root for testing.
func CreateTempWorkspace(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules"), 0755))

	return root
}

// CreateTestWorkspace returns workspace settings rooted at root.
func CreateTestWorkspace(root string) *config.Workspace {
	return config.DefaultWorkspace(root)
}

// CreateProject writes a project directory under root. Keys of files are
// project-relative paths.
func CreateProject(t *testing.T, root, id string, files map[string]string) string {
	t.Helper()

	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0755))

	for name, content := range files {
		WriteFile(t, filepath.Join(dir, name), content)
	}

	return dir
}

// CreateStandardProject writes a TypeScript project with a manifest, a
// tsconfig and a src/index.ts entry.
func CreateStandardProject(t *testing.T, root, id string) string {
	t.Helper()

	return CreateProject(t, root, id, map[string]string{
		"package.json":  StandardManifest,
		"tsconfig.json": StandardTSConfig,
		"src/index.ts":  "export const answer = 42;\n",
	})
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// ListFiles returns the paths of every regular file under dir, relative to
// dir and sorted.
func ListFiles(t *testing.T, dir string) []string {
	t.Helper()

	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)

	sort.Strings(files)
	return files
}

// AssertNotExists fails the test if path exists.
func AssertNotExists(t *testing.T, path string) {
	t.Helper()

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "expected %s to be absent", path)
}
