package errors

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Severity represents the severity of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic is one structured message extracted from type-checker output.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code,omitempty"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Column   int      `json:"column,omitempty"`
	Message  string   `json:"message"`
	Raw      string   `json:"raw"`
}

// String formats the diagnostic the way compilers print locations.
func (d *Diagnostic) String() string {
	if d.File == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}

	return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Line, d.Column, d.Severity, d.Message)
}

type diagnosticPattern struct {
	regex       *regexp.Regexp
	parseFields func(matches []string) Diagnostic
}

var tscPatterns = []diagnosticPattern{
	{
		// src/index.ts(3,7): error TS2322: Type 'string' is not assignable ...
		regex: regexp.MustCompile(`^(.+?)\((\d+),(\d+)\): (error|warning|message) (TS\d+): (.+)$`),
		parseFields: func(m []string) Diagnostic {
			line, _ := strconv.Atoi(m[2])
			column, _ := strconv.Atoi(m[3])
			return Diagnostic{
				Severity: parseSeverity(m[4]),
				Code:     m[5],
				File:     m[1],
				Line:     line,
				Column:   column,
				Message:  m[6],
			}
		},
	},
	{
		// error TS5058: The specified path does not exist: 'tsconfig.json'.
		regex: regexp.MustCompile(`^(error|warning|message) (TS\d+): (.+)$`),
		parseFields: func(m []string) Diagnostic {
			return Diagnostic{
				Severity: parseSeverity(m[1]),
				Code:     m[2],
				Message:  m[3],
			}
		},
	},
}

func parseSeverity(s string) Severity {
	switch s {
	case "error":
		return SeverityError
	case "warning":
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// ParseTypeCheckOutput extracts diagnostics from non-pretty tsc output.
// Continuation lines (indented explanation text) are appended to the
// preceding diagnostic's message.
func ParseTypeCheckOutput(output string) []*Diagnostic {
	var diagnostics []*Diagnostic

	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimRight(raw, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if d := parseDiagnosticLine(line); d != nil {
			diagnostics = append(diagnostics, d)
			continue
		}

		if n := len(diagnostics); n > 0 && (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) {
			last := diagnostics[n-1]
			last.Message += " " + strings.TrimSpace(line)
			last.Raw += "\n" + line
		}
	}

	return diagnostics
}

func parseDiagnosticLine(line string) *Diagnostic {
	for _, pattern := range tscPatterns {
		if matches := pattern.regex.FindStringSubmatch(line); matches != nil {
			d := pattern.parseFields(matches)
			d.Raw = line
			return &d
		}
	}

	return nil
}

// TypeCheckError builds a bundle error summarising type-checker diagnostics.
func TypeCheckError(diagnostics []*Diagnostic, cause error) *Error {
	var errorCount int
	for _, d := range diagnostics {
		if d.Severity == SeverityError {
			errorCount++
		}
	}

	e := NewBundleError(
		ErrCodeTypeCheckFailed,
		fmt.Sprintf("type check failed with %d error(s)", errorCount),
		cause,
	)
	if len(diagnostics) > 0 {
		first := diagnostics[0]
		e.FilePath = first.File
		e.Line = first.Line
		e.Column = first.Column
		e.WithContext("diagnostics", diagnostics)
	}

	return e
}
