// Package paths resolves project-relative paths against a project root.
package paths

import (
	"os"
	"path/filepath"
)

// DefaultExtensions is the probe order used for extensionless entry modules.
var DefaultExtensions = []string{".ts", ".tsx", ".mjs", ".js", ".jsx", ".json"}

// Resolver turns configured paths into absolute filesystem paths.
type Resolver struct {
	// Extensions are probed in order when an extensionless path is resolved
	// with appendExt set.
	Extensions []string
}

// NewResolver creates a resolver probing the given extensions.
// A nil slice selects DefaultExtensions.
func NewResolver(extensions []string) *Resolver {
	if extensions == nil {
		extensions = DefaultExtensions
	}
	return &Resolver{Extensions: extensions}
}

// Resolve makes p absolute relative to base. An empty p resolves to an empty
// string so that an unset path stays unset.
//
// With appendExt, a result without an extension gets the first configured
// extension for which a file exists. When none exists the path is returned
// unchanged and the bundler reports the missing entry later.
func (r *Resolver) Resolve(base, p string, appendExt bool) string {
	if p == "" {
		return ""
	}

	result := p
	if !filepath.IsAbs(result) {
		result = filepath.Join(base, p)
	}
	result = filepath.Clean(result)

	if appendExt {
		return r.appendExtension(result)
	}
	return result
}

// ResolveAll resolves every path in ps against base, dropping empty entries.
func (r *Resolver) ResolveAll(base string, ps []string) []string {
	resolved := make([]string, 0, len(ps))
	for _, p := range ps {
		if abs := r.Resolve(base, p, false); abs != "" {
			resolved = append(resolved, abs)
		}
	}
	return resolved
}

func (r *Resolver) appendExtension(file string) string {
	if filepath.Ext(file) != "" {
		return file
	}

	for _, ext := range r.Extensions {
		info, err := os.Stat(file + ext)
		if err == nil && !info.IsDir() {
			return file + ext
		}
	}

	return file
}
