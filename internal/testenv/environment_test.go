package testenv

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/conneroisu/bundler/internal/build"
	bundlererrors "github.com/conneroisu/bundler/internal/errors"
	"github.com/conneroisu/bundler/internal/testutils"
)

type fakeLifecycle struct {
	setups    int
	teardowns int
	setupErr  error
}

func (f *fakeLifecycle) Setup(ctx context.Context) error {
	f.setups++
	return f.setupErr
}

func (f *fakeLifecycle) Teardown(ctx context.Context) error {
	f.teardowns++
	return nil
}

// failingBundler fails every unit it is asked to open.
type failingBundler struct {
	opened int
}

func (b *failingBundler) Open(ctx context.Context, unit *build.Unit) (build.Bundle, error) {
	b.opened++
	return nil, stderrors.New("bundler exploded")
}

// partialBundler writes the primary file of each output and then fails.
type partialBundler struct{}

func (partialBundler) Open(ctx context.Context, unit *build.Unit) (build.Bundle, error) {
	return partialBundle{}, nil
}

type partialBundle struct{}

func (partialBundle) Write(ctx context.Context, out build.Output) ([]string, error) {
	if err := os.MkdirAll(filepath.Dir(out.FilePath), 0755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(out.FilePath, []byte("partial"), 0644); err != nil {
		return nil, err
	}
	return nil, stderrors.New("disk full")
}

func (partialBundle) Close() error { return nil }

func createTestProject(t *testing.T, files map[string]string) (string, string) {
	t.Helper()

	base := map[string]string{
		"package.json":             testutils.StandardManifest,
		"tsconfig.json":            testutils.StandardTSConfig,
		"src/index.ts":             "export const answer = 42;\n",
		"__tests__/index.ts":       "document.title = document.title + ' loaded';\n",
		"__tests__/box.test.ts":    "test('box', () => {});\n",
		"__tests__/box.styles.css": ".box { color: red; }\n",
	}
	for k, v := range files {
		base[k] = v
	}

	root := testutils.CreateTempWorkspace(t)
	testutils.CreateProject(t, root, "widgets", base)
	return root, filepath.Join("widgets", "__tests__", "box.test.ts")
}

func TestEnvironmentBundlesTestPage(t *testing.T) {
	root, testPath := createTestProject(t, nil)
	lifecycle := &fakeLifecycle{}

	env := New(testutils.CreateTestWorkspace(root), build.NewESBuild(nil, nil), lifecycle, nil)
	result, err := env.Setup(context.Background(), testPath)
	require.NoError(t, err)
	require.True(t, result.Bundled(), "bundle error: %v", result.BundleErr)

	assert.Equal(t, StateReady, env.State())
	assert.Equal(t, 1, lifecycle.setups)

	outDir := filepath.Join(root, "widgets", "__tests__", "build")
	assert.Equal(t, outDir, result.Scope.OutputDir)
	assert.Equal(t, []string{"build.html", "build.js"}, testutils.ListFiles(t, outDir))

	page, err := os.ReadFile(filepath.Join(outDir, "build.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "<title>Browser Test: box</title>")
	assert.Contains(t, string(page), `<script src="build.js"></script>`)
	assert.Contains(t, string(page), `<meta charset="utf-8">`)

	doc, err := html.Parse(bytes.NewReader(page))
	require.NoError(t, err)
	var body *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	require.NotNil(t, body)

	var children []string
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			children = append(children, c.Data)
		}
	}
	assert.Equal(t, []string{"script"}, children, "without a template the body holds only the scripts")

	bundle, err := os.ReadFile(filepath.Join(outDir, "build.js"))
	require.NoError(t, err)
	assert.Contains(t, string(bundle), "loaded")
	assert.NotContains(t, string(bundle), "sourceMappingURL")

	assert.True(t, strings.HasPrefix(env.PageURL(), "file://"))
	assert.True(t, strings.HasSuffix(env.PageURL(), "/widgets/__tests__/build/build.html"))

	require.NoError(t, env.Teardown(context.Background()))
	testutils.AssertNotExists(t, outDir)
	assert.Equal(t, 1, lifecycle.teardowns)
	assert.Equal(t, StateTornDown, env.State())
}

func TestEnvironmentUsesTemplateAndStyles(t *testing.T) {
	root, testPath := createTestProject(t, map[string]string{
		"__tests__/index.html": `<div id="app"></div>`,
		"__tests__/index.ts":   "import './box.styles.css';\nexport const ready = true;\n",
	})

	env := New(testutils.CreateTestWorkspace(root), build.NewESBuild(nil, nil), &fakeLifecycle{}, nil)
	result, err := env.Setup(context.Background(), testPath)
	require.NoError(t, err)
	require.NoError(t, result.BundleErr)

	assert.Equal(t, []string{"build.css", "build.html", "build.js"},
		testutils.ListFiles(t, result.Scope.OutputDir))

	page, err := os.ReadFile(result.Scope.PagePath())
	require.NoError(t, err)

	out := string(page)
	assert.Contains(t, out, `<link href="build.css" rel="stylesheet">`)
	app := strings.Index(out, `<div id="app"></div>`)
	script := strings.Index(out, `<script src="build.js">`)
	require.NotEqual(t, -1, app)
	assert.Less(t, app, script, "template body precedes the scripts")
}

func TestEnvironmentBundleFailureStillStartsBrowser(t *testing.T) {
	root, testPath := createTestProject(t, nil)
	lifecycle := &fakeLifecycle{}
	bundler := &failingBundler{}

	env := New(testutils.CreateTestWorkspace(root), bundler, lifecycle, nil)
	result, err := env.Setup(context.Background(), testPath)
	require.NoError(t, err)

	assert.False(t, result.Bundled())
	assert.Contains(t, result.BundleErr.Error(), "bundler exploded")
	assert.Equal(t, 1, bundler.opened)
	assert.Equal(t, 1, lifecycle.setups, "browser setup runs exactly once")
	assert.Equal(t, StateReady, env.State())

	require.NoError(t, env.Teardown(context.Background()))
	testutils.AssertNotExists(t, result.Scope.OutputDir)
	assert.Equal(t, 1, lifecycle.teardowns)
}

func TestEnvironmentTeardownAfterPartialBundle(t *testing.T) {
	root, testPath := createTestProject(t, nil)
	lifecycle := &fakeLifecycle{}

	env := New(testutils.CreateTestWorkspace(root), partialBundler{}, lifecycle, nil)
	result, err := env.Setup(context.Background(), testPath)
	require.NoError(t, err)
	require.Error(t, result.BundleErr)

	_, err = os.Stat(filepath.Join(result.Scope.OutputDir, "build.js"))
	require.NoError(t, err, "the failed bundle left output behind")

	require.NoError(t, env.Teardown(context.Background()))
	testutils.AssertNotExists(t, result.Scope.OutputDir)
	assert.Equal(t, 1, lifecycle.teardowns)
}

func TestEnvironmentTestOutsideProjectStillStartsBrowser(t *testing.T) {
	root, _ := createTestProject(t, nil)
	testutils.WriteFile(t, filepath.Join(root, "box.test.ts"), "test('box', () => {});\n")
	testutils.WriteFile(t, filepath.Join(root, "build", "stale.js"), "x")
	lifecycle := &fakeLifecycle{}
	bundler := &failingBundler{}

	env := New(testutils.CreateTestWorkspace(root), bundler, lifecycle, nil)
	result, err := env.Setup(context.Background(), "box.test.ts")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, bundlererrors.HasErrorCode(result.BundleErr, bundlererrors.ErrCodeConfigInvalid))
	assert.Equal(t, 0, bundler.opened, "nothing is bundled without a project")
	assert.Equal(t, 1, lifecycle.setups, "browser setup runs exactly once")
	assert.Equal(t, StateReady, env.State())
	assert.Equal(t, filepath.Join(root, "build"), result.Scope.OutputDir)

	require.NoError(t, env.Teardown(context.Background()))
	testutils.AssertNotExists(t, filepath.Join(root, "build"))
	assert.Equal(t, 1, lifecycle.teardowns)
}

func TestEnvironmentSyntaxErrorIsCaptured(t *testing.T) {
	root, testPath := createTestProject(t, map[string]string{
		"__tests__/index.ts": "export const = ;\n",
	})
	lifecycle := &fakeLifecycle{}

	env := New(testutils.CreateTestWorkspace(root), build.NewESBuild(nil, nil), lifecycle, nil)
	result, err := env.Setup(context.Background(), testPath)
	require.NoError(t, err)

	assert.True(t, bundlererrors.IsBundleError(result.BundleErr))
	assert.Equal(t, 1, lifecycle.setups)

	require.NoError(t, env.Teardown(context.Background()))
	testutils.AssertNotExists(t, result.Scope.OutputDir)
}

func TestEnvironmentMissingManifestIsCaptured(t *testing.T) {
	root, testPath := createTestProject(t, nil)
	require.NoError(t, os.Remove(filepath.Join(root, "widgets", "package.json")))

	env := New(testutils.CreateTestWorkspace(root), build.NewESBuild(nil, nil), &fakeLifecycle{}, nil)
	result, err := env.Setup(context.Background(), testPath)
	require.NoError(t, err)
	assert.True(t, bundlererrors.HasErrorCode(result.BundleErr, bundlererrors.ErrCodeManifestMissing))
}

func TestEnvironmentLifecycleSetupError(t *testing.T) {
	root, testPath := createTestProject(t, nil)
	lifecycle := &fakeLifecycle{setupErr: stderrors.New("no chrome")}

	env := New(testutils.CreateTestWorkspace(root), &failingBundler{}, lifecycle, nil)
	result, err := env.Setup(context.Background(), testPath)
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Error(t, result.BundleErr)

	assert.NoError(t, env.Teardown(context.Background()), "teardown still cleans up")
}

func TestEnvironmentInvalidTransitions(t *testing.T) {
	root, testPath := createTestProject(t, nil)
	env := New(testutils.CreateTestWorkspace(root), &failingBundler{}, &fakeLifecycle{}, nil)

	err := env.Teardown(context.Background())
	assert.True(t, bundlererrors.HasErrorCode(err, bundlererrors.ErrCodeInvalidState))

	_, err = env.Setup(context.Background(), testPath)
	require.NoError(t, err)

	_, err = env.Setup(context.Background(), testPath)
	assert.True(t, bundlererrors.HasErrorCode(err, bundlererrors.ErrCodeInvalidState))

	require.NoError(t, env.Teardown(context.Background()))
	err = env.Teardown(context.Background())
	assert.True(t, bundlererrors.HasErrorCode(err, bundlererrors.ErrCodeInvalidState))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "bundling", StateBundling.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "torn-down", StateTornDown.String())
}
