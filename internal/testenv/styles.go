package testenv

import (
	"github.com/evanw/esbuild/pkg/api"
)

// Styles extracts imported stylesheets into a CSS file written next to the
// bundle, where the generated page links it. Files ending in .module.css
// are treated as CSS modules with locally scoped class names.
type Styles struct{}

func (Styles) Name() string { return "styles" }

func (Styles) ConfigureBuild(opts *api.BuildOptions) {
	if opts.Loader == nil {
		opts.Loader = map[string]api.Loader{}
	}
	opts.Loader[".css"] = api.LoaderCSS
	opts.Loader[".module.css"] = api.LoaderLocalCSS
}
