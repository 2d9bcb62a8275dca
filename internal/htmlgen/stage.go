// Package htmlgen provides a pipeline stage that writes an HTML page loading
// the files of a freshly written output.
package htmlgen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/bundler/internal/errors"
	"github.com/conneroisu/bundler/internal/pipeline"
)

// DefaultFileName is used when a Stage names no file.
const DefaultFileName = "index.html"

// Attrs is a set of HTML attributes. Values are escaped when rendered.
type Attrs map[string]string

// Attributes holds extra attributes for the generated elements.
type Attributes struct {
	HTML   Attrs
	Link   Attrs
	Script Attrs
}

// DefaultMeta returns the meta tags written when a Stage configures none.
func DefaultMeta() []Attrs {
	return []Attrs{
		{"charset": "utf-8"},
		{"http-equiv": "X-UA-Compatible", "content": "IE=edge"},
	}
}

// Stage writes an HTML page next to each output it sees. The page links
// every written .css file and loads every written .js file, in the order
// they were written.
type Stage struct {
	Title    string
	FileName string
	// Body is inserted verbatim before the scripts.
	Body       string
	Meta       []Attrs
	Attributes Attributes
}

func (*Stage) Name() string { return "html" }

// Path returns where the page for an output file is written.
func (s *Stage) Path(outputFile string) string {
	return filepath.Join(filepath.Dir(outputFile), s.fileName())
}

func (s *Stage) fileName() string {
	if s.FileName == "" {
		return DefaultFileName
	}
	return s.FileName
}

// AfterWrite renders the page for the output that was just written.
func (s *Stage) AfterWrite(ctx context.Context, result pipeline.WriteResult) error {
	dir := filepath.Dir(result.OutputFile)

	var scripts, styles []string
	for _, f := range result.Files {
		rel, err := filepath.Rel(dir, f)
		if err != nil {
			rel = filepath.Base(f)
		}
		rel = filepath.ToSlash(rel)

		switch strings.ToLower(filepath.Ext(f)) {
		case ".js", ".mjs":
			scripts = append(scripts, rel)
		case ".css":
			styles = append(styles, rel)
		}
	}

	var buf bytes.Buffer
	if err := s.Document(scripts, styles).Render(ctx, &buf); err != nil {
		return errors.NewInternalError(errors.ErrCodeInternalError, "cannot render html", err)
	}

	path := s.Path(result.OutputFile)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.NewIOError(errors.ErrCodeWriteFailed, "cannot write html", err).WithFile(path)
	}
	return nil
}

// Document returns the page as a templ component.
func (s *Stage) Document(scripts, styles []string) templ.Component {
	meta := s.Meta
	if len(meta) == 0 {
		meta = DefaultMeta()
	}

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder

		b.WriteString("<!DOCTYPE html>\n")
		b.WriteString("<html" + renderAttrs(s.Attributes.HTML) + ">\n")
		b.WriteString("<head>\n")
		for _, m := range meta {
			b.WriteString("  <meta" + renderAttrs(m) + ">\n")
		}
		b.WriteString("  <title>" + templ.EscapeString(s.Title) + "</title>\n")
		for _, href := range styles {
			attrs := mergeAttrs(s.Attributes.Link, Attrs{"rel": "stylesheet", "href": href})
			b.WriteString("  <link" + renderAttrs(attrs) + ">\n")
		}
		b.WriteString("</head>\n")
		b.WriteString("<body>\n")

		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		if s.Body != "" {
			if err := templ.Raw(s.Body).Render(ctx, w); err != nil {
				return err
			}
			if !strings.HasSuffix(s.Body, "\n") {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
		}

		b.Reset()
		for _, src := range scripts {
			attrs := mergeAttrs(s.Attributes.Script, Attrs{"src": src})
			b.WriteString("  <script" + renderAttrs(attrs) + "></script>\n")
		}
		b.WriteString("</body>\n")
		b.WriteString("</html>\n")

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func mergeAttrs(base, over Attrs) Attrs {
	merged := make(Attrs, len(base)+len(over))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range over {
		merged[k] = v
	}
	return merged
}

// renderAttrs writes attributes in key order so output is stable.
func renderAttrs(attrs Attrs) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, ` %s="%s"`, templ.EscapeString(k), templ.EscapeString(attrs[k]))
	}
	return b.String()
}
