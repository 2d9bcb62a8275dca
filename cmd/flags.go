package cmd

import (
	"github.com/spf13/pflag"

	"github.com/conneroisu/bundler/internal/config"
)

// disabledFlag returns a false override when a --no-* flag was passed and
// nil otherwise, so unset flags leave the project's settings alone.
func disabledFlag(fs *pflag.FlagSet, name string) *bool {
	if !fs.Changed(name) {
		return nil
	}
	if v, err := fs.GetBool(name); err == nil && v {
		return config.Ptr(false)
	}
	return nil
}

// stringFlag returns the flag value when it was passed explicitly.
func stringFlag(fs *pflag.FlagSet, name string) *string {
	if !fs.Changed(name) {
		return nil
	}
	v, err := fs.GetString(name)
	if err != nil {
		return nil
	}
	return config.Ptr(v)
}

// overridesFromFlags maps the build flags onto a configuration layer.
func overridesFromFlags(fs *pflag.FlagSet) config.Layer {
	layer := config.Layer{
		Dist:        stringFlag(fs, "dist"),
		MinVersions: disabledFlag(fs, "no-min"),
		ESMBuild:    disabledFlag(fs, "no-esm"),
		Sourcemap:   disabledFlag(fs, "no-sourcemap"),
	}
	if disabledFlag(fs, "no-types") != nil {
		layer.Types = config.Ptr("")
	}
	return layer
}
