package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/conneroisu/bundler/internal/errors"
)

// ManifestFileName is the dependency manifest every project must carry.
const ManifestFileName = "package.json"

// Manifest is the subset of package.json the bundler reads.
type Manifest struct {
	Name             string            `json:"name"`
	Version          string            `json:"version"`
	Dependencies     map[string]string `json:"dependencies"`
	DevDependencies  map[string]string `json:"devDependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`
}

// LoadManifest reads package.json from a project directory.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewConfigError(errors.ErrCodeManifestMissing,
				"dependency manifest not found", err).WithFile(path)
		}
		return nil, errors.NewConfigError(errors.ErrCodeManifestMissing,
			"cannot read dependency manifest", err).WithFile(path)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeManifestParse,
			"dependency manifest is not valid JSON", err).WithFile(path)
	}

	return &m, nil
}

// ExternalIDs returns the runtime and peer dependency names, sorted and
// deduplicated. These modules are never bundled.
func (m *Manifest) ExternalIDs() []string {
	seen := make(map[string]struct{}, len(m.Dependencies)+len(m.PeerDependencies))
	ids := make([]string, 0, len(m.Dependencies)+len(m.PeerDependencies))

	for _, deps := range []map[string]string{m.Dependencies, m.PeerDependencies} {
		for id := range deps {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	sort.Strings(ids)
	return ids
}
