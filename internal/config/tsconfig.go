package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/conneroisu/bundler/internal/errors"
)

// TSConfigFileName marks a project as written in TypeScript.
const TSConfigFileName = "tsconfig.json"

// TSConfig is the part of tsconfig.json the pipeline reads.
type TSConfig struct {
	Path    string   `json:"-"`
	Exclude []string `json:"exclude"`
}

// LoadTSConfig returns nil when dir has no tsconfig.json. A present file
// that cannot be parsed is a configuration error.
func LoadTSConfig(dir string) (*TSConfig, error) {
	path := filepath.Join(dir, TSConfigFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewConfigError(errors.ErrCodeTSConfigParse,
			"cannot read tsconfig", err).WithFile(path)
	}

	var ts TSConfig
	if err := json.Unmarshal(stripJSONC(data), &ts); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeTSConfigParse,
			"tsconfig is not valid JSON", err).WithFile(path)
	}
	ts.Path = path

	return &ts, nil
}

// stripJSONC removes // and /* */ comments and trailing commas, which
// tsconfig files commonly contain. String contents are left alone.
func stripJSONC(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false

	for i := 0; i < len(data); i++ {
		c := data[i]

		if inString {
			out = append(out, c)
			if c == '\\' && i+1 < len(data) {
				i++
				out = append(out, data[i])
			} else if c == '"' {
				inString = false
			}
			continue
		}

		switch {
		case c == '"':
			inString = true
			out = append(out, c)
		case c == '/' && i+1 < len(data) && data[i+1] == '/':
			for i < len(data) && data[i] != '\n' {
				i++
			}
			if i < len(data) {
				out = append(out, '\n')
			}
		case c == '/' && i+1 < len(data) && data[i+1] == '*':
			i += 2
			for i+1 < len(data) && !(data[i] == '*' && data[i+1] == '/') {
				i++
			}
			i++
		case c == ']' || c == '}':
			trimmed := bytes.TrimRight(out, " \t\r\n")
			if len(trimmed) > 0 && trimmed[len(trimmed)-1] == ',' {
				out = append(trimmed[:len(trimmed)-1], out[len(trimmed):]...)
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}

	return out
}
