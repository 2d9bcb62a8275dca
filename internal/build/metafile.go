package build

import (
	"encoding/json"
	"path/filepath"
	"sort"
)

// Metafile represents the esbuild metafile JSON structure
type Metafile struct {
	Inputs  map[string]MetafileInput  `json:"inputs"`
	Outputs map[string]MetafileOutput `json:"outputs"`
}

// MetafileInput represents an input file in the metafile
type MetafileInput struct {
	Bytes   int              `json:"bytes"`
	Imports []MetafileImport `json:"imports"`
	Format  string           `json:"format,omitempty"`
}

// MetafileImport represents an import in the metafile
type MetafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
	Original string `json:"original,omitempty"`
}

// MetafileOutput represents an output file in the metafile
type MetafileOutput struct {
	Bytes      int                     `json:"bytes"`
	Inputs     map[string]InputContrib `json:"inputs"`
	Imports    []MetafileImport        `json:"imports"`
	Exports    []string                `json:"exports"`
	EntryPoint string                  `json:"entryPoint,omitempty"`
}

// InputContrib represents the contribution of an input to an output
type InputContrib struct {
	BytesInOutput int `json:"bytesInOutput"`
}

// Analysis summarises what went into one output file.
type Analysis struct {
	Output          string
	TotalBytes      int
	Inputs          []InputAnalysis
	ExternalImports []string
}

// InputAnalysis is one input's share of an output.
type InputAnalysis struct {
	Path          string
	BytesInOutput int
	Percentage    float64
}

// ParseMetafile decodes the metafile JSON esbuild returns.
func ParseMetafile(data string) (*Metafile, error) {
	var m Metafile
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Analyze reports the inputs of the output written to outFile, largest
// first. It returns nil when the metafile has no such output.
func (m *Metafile) Analyze(outFile, workDir string) *Analysis {
	for key, out := range m.Outputs {
		path := key
		if !filepath.IsAbs(path) && workDir != "" {
			path = filepath.Join(workDir, path)
		}
		if filepath.Clean(path) != filepath.Clean(outFile) {
			continue
		}

		a := &Analysis{Output: outFile, TotalBytes: out.Bytes}
		for in, contrib := range out.Inputs {
			pct := 0.0
			if out.Bytes > 0 {
				pct = float64(contrib.BytesInOutput) / float64(out.Bytes) * 100
			}
			a.Inputs = append(a.Inputs, InputAnalysis{
				Path:          in,
				BytesInOutput: contrib.BytesInOutput,
				Percentage:    pct,
			})
		}
		sort.Slice(a.Inputs, func(i, j int) bool {
			if a.Inputs[i].BytesInOutput != a.Inputs[j].BytesInOutput {
				return a.Inputs[i].BytesInOutput > a.Inputs[j].BytesInOutput
			}
			return a.Inputs[i].Path < a.Inputs[j].Path
		})

		seen := map[string]bool{}
		for _, imp := range out.Imports {
			if imp.External && !seen[imp.Path] {
				seen[imp.Path] = true
				a.ExternalImports = append(a.ExternalImports, imp.Path)
			}
		}
		sort.Strings(a.ExternalImports)

		return a
	}
	return nil
}

// Top returns at most n of the largest inputs.
func (a *Analysis) Top(n int) []InputAnalysis {
	if len(a.Inputs) <= n {
		return a.Inputs
	}
	return a.Inputs[:n]
}
