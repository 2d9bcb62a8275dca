package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/bundler/internal/errors"
	"github.com/conneroisu/bundler/internal/pipeline"
)

// SettingsFileNames are the per-project settings candidates, in lookup order.
var SettingsFileNames = []string{
	"build.config.json",
	"build.config.yaml",
	"build.config.yml",
}

// settingsFile mirrors the on-disk settings schema. JSON files are read by
// the YAML decoder as well.
type settingsFile struct {
	Name        *string           `yaml:"name"`
	File        *string           `yaml:"file"`
	Input       *string           `yaml:"input"`
	Src         *string           `yaml:"src"`
	Dist        *string           `yaml:"dist"`
	Types       yaml.Node         `yaml:"types"`
	Tests       *string           `yaml:"tests"`
	Cache       []string          `yaml:"cache"`
	MinVersions *bool             `yaml:"minVersions"`
	Sourcemap   *bool             `yaml:"sourcemap"`
	ESMBuild    *bool             `yaml:"esmBuild"`
	Exports     *string           `yaml:"exports"`
	Globals     map[string]string `yaml:"globals"`
	Pipeline    []string          `yaml:"pipeline"`
}

// FindSettingsFile returns the first settings candidate present in dir, or
// "" when the project has none.
func FindSettingsFile(dir string) string {
	for _, name := range SettingsFileNames {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// LoadSettingsFile parses a settings file into a configuration layer.
func LoadSettingsFile(path string) (Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layer{}, errors.NewConfigError(errors.ErrCodeSettingsParse,
			"cannot read settings file", err).WithFile(path)
	}

	layer, err := ParseSettings(data)
	if err != nil {
		var cfgErr *errors.Error
		if stderrors.As(err, &cfgErr) {
			return Layer{}, cfgErr.WithFile(path)
		}
		return Layer{}, err
	}
	return layer, nil
}

// ParseSettings decodes settings file content. Unknown keys are ignored.
func ParseSettings(data []byte) (Layer, error) {
	var sf settingsFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return Layer{}, errors.NewConfigError(errors.ErrCodeSettingsParse,
			"settings file is not valid JSON or YAML", err)
	}

	types, err := decodeTypes(&sf.Types)
	if err != nil {
		return Layer{}, err
	}

	layer := Layer{
		Name:        sf.Name,
		File:        sf.File,
		Input:       sf.Input,
		Src:         sf.Src,
		Dist:        sf.Dist,
		Types:       types,
		Tests:       sf.Tests,
		Cache:       sf.Cache,
		MinVersions: sf.MinVersions,
		Sourcemap:   sf.Sourcemap,
		ESMBuild:    sf.ESMBuild,
		Exports:     sf.Exports,
		Globals:     sf.Globals,
	}

	if sf.Pipeline != nil {
		refs := make([]pipeline.Ref, len(sf.Pipeline))
		for i, id := range sf.Pipeline {
			refs[i] = pipeline.Use(pipeline.ID(id))
		}
		if err := pipeline.Validate(refs); err != nil {
			return Layer{}, err
		}
		layer.Pipeline = refs
	}

	return layer, nil
}

// decodeTypes maps the types key: absent leaves the default, null or false
// disables declarations, true keeps the default directory.
func decodeTypes(node *yaml.Node) (*string, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.ScalarNode {
		return nil, errors.NewConfigError(errors.ErrCodeSettingsParse,
			fmt.Sprintf("types: expected a path, false or null at line %d", node.Line), nil)
	}

	switch node.Tag {
	case "!!null":
		return Ptr(""), nil
	case "!!bool":
		var enabled bool
		if err := node.Decode(&enabled); err != nil {
			return nil, errors.NewConfigError(errors.ErrCodeSettingsParse, "types: invalid boolean", err)
		}
		if enabled {
			return nil, nil
		}
		return Ptr(""), nil
	case "!!str":
		return Ptr(node.Value), nil
	default:
		return nil, errors.NewConfigError(errors.ErrCodeSettingsParse,
			fmt.Sprintf("types: expected a path, false or null at line %d", node.Line), nil)
	}
}
