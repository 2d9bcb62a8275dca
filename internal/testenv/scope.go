package testenv

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/conneroisu/bundler/internal/errors"
)

// Output names inside a test's scoped directory.
const (
	OutputDirName = "build"
	OutputFile    = "build"
	PageFileName  = "build.html"
	TemplateName  = "index.html"
	EntryName     = "index"
)

// Scope locates everything built for one test file.
type Scope struct {
	TestPath string
	TestDir  string
	// OutputDir is removed on teardown.
	OutputDir string
	// EntryPath is extensionless; the loader probes the configured extensions.
	EntryPath string
	// Name is the test file's base name up to its first dot.
	Name string
	// ProjectID is the first path segment below the project root.
	ProjectID string
}

// NewScope derives the scope of testPath. Relative test paths are taken
// relative to projectRoot.
//
// A test outside any project directory yields an error together with a
// scope that still locates the test's output directory, so whatever was
// written there can be removed on teardown.
func NewScope(projectRoot, testPath string) (Scope, error) {
	abs := testPath
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(projectRoot, testPath)
	}
	abs = filepath.Clean(abs)

	rel, err := filepath.Rel(projectRoot, abs)
	if err == nil && rel == "." {
		return Scope{TestPath: abs}, errors.NewConfigError(errors.ErrCodeConfigInvalid,
			"test path is the project root itself", nil).WithFile(testPath)
	}

	dir := filepath.Dir(abs)
	scope := Scope{
		TestPath:  abs,
		TestDir:   dir,
		OutputDir: filepath.Join(dir, OutputDirName),
		EntryPath: filepath.Join(dir, EntryName),
		Name:      displayName(abs),
	}

	if err != nil || outside(rel) {
		return scope, errors.NewConfigError(errors.ErrCodeConfigInvalid,
			"test file is not inside the project root", err).WithFile(testPath)
	}

	segments := strings.Split(filepath.ToSlash(rel), "/")
	if len(segments) < 2 {
		return scope, errors.NewConfigError(errors.ErrCodeConfigInvalid,
			"test file must live inside a project directory", nil).WithFile(testPath)
	}

	scope.ProjectID = segments[0]
	return scope, nil
}

// outside reports whether a relative path climbs out of its base. Names
// that merely start with two dots, such as "..shared", stay inside.
func outside(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func displayName(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i > 0 {
		return base[:i]
	}
	return base
}

// Title is the generated page title.
func (s Scope) Title() string {
	return "Browser Test: " + s.Name
}

// PagePath is the generated HTML page.
func (s Scope) PagePath() string {
	return filepath.Join(s.OutputDir, PageFileName)
}

// PageURL is the file URL of the generated page.
func (s Scope) PageURL() string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(s.PagePath())}
	return u.String()
}

// TemplatePath is the optional body template next to the test.
func (s Scope) TemplatePath() string {
	return filepath.Join(s.TestDir, TemplateName)
}
