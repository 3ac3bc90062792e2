// Package presenter renders user-facing CLI output. Command results go to
// stdout in a fixed line format; errors go to stderr. Colour is applied only
// when the destination supports it.
package presenter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// Presenter defines the interface for consistent CLI output
type Presenter interface {
	Error(err error, context string)
	Warning(message string)
	Info(message string)
	Success(message string)
	Failure(message string)
	Verdict(valid bool, message string)
	CheckResult(name string, valid bool, message string)
	Section(title string)
	Table(headers []string, rows [][]string)
	Blank()
	SetQuiet(quiet bool)
	IsQuiet() bool
}

// ColorMode represents different color output modes
type ColorMode int

const (
	// ColorAuto lets fatih/color decide from the terminal
	ColorAuto ColorMode = iota
	// ColorAlways forces colored output
	ColorAlways
	// ColorNever disables colored output
	ColorNever
)

// TerminalPresenter implements Presenter for terminal output
type TerminalPresenter struct {
	output      io.Writer
	errorOutput io.Writer
	quiet       bool
}

// New creates a TerminalPresenter on stdout/stderr
func New() *TerminalPresenter {
	return NewWithOptions(os.Stdout, os.Stderr, detectColorMode())
}

// NewWithOptions creates a TerminalPresenter with custom writers and color mode
func NewWithOptions(output, errorOutput io.Writer, colorMode ColorMode) *TerminalPresenter {
	switch colorMode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	}

	return &TerminalPresenter{
		output:      output,
		errorOutput: errorOutput,
	}
}

// detectColorMode honours NO_COLOR and SKILLKIT_COLOR
func detectColorMode() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}

	switch os.Getenv("SKILLKIT_COLOR") {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	default:
		return ColorAuto
	}
}

// Error writes "Error: <context>: <err>" to stderr. It is never silenced.
func (p *TerminalPresenter) Error(err error, context string) {
	if err == nil {
		return
	}

	errorColor := color.New(color.FgRed, color.Bold)
	if context != "" {
		errorColor.Fprintf(p.errorOutput, "Error: %s: %v\n", context, err)
	} else {
		errorColor.Fprintf(p.errorOutput, "Error: %v\n", err)
	}
}

// Warning writes a warning to stderr
func (p *TerminalPresenter) Warning(message string) {
	if p.quiet {
		return
	}

	color.New(color.FgYellow).Fprintf(p.errorOutput, "Warning: %s\n", message)
}

// Info writes a plain line to stdout
func (p *TerminalPresenter) Info(message string) {
	if p.quiet {
		return
	}

	fmt.Fprintln(p.output, message)
}

// Success writes a highlighted line to stdout
func (p *TerminalPresenter) Success(message string) {
	if p.quiet {
		return
	}

	color.New(color.FgGreen).Fprintln(p.output, message)
}

// Failure writes a failure line to stdout. Like failed checks it is printed
// even in quiet mode.
func (p *TerminalPresenter) Failure(message string) {
	color.New(color.FgRed).Fprintln(p.output, message)
}

// Verdict writes the outcome of a single validation as "Valid: ..." or
// "Invalid: ...". Verdicts are printed even in quiet mode.
func (p *TerminalPresenter) Verdict(valid bool, message string) {
	if valid {
		color.New(color.FgGreen).Fprintf(p.output, "Valid: %s\n", message)
		return
	}
	color.New(color.FgRed).Fprintf(p.output, "Invalid: %s\n", message)
}

// CheckResult writes one batch line, "  [PASS] name: message" or
// "  [FAIL] name: message". Quiet mode keeps failures only.
func (p *TerminalPresenter) CheckResult(name string, valid bool, message string) {
	if valid {
		if p.quiet {
			return
		}
		fmt.Fprint(p.output, "  [")
		color.New(color.FgGreen, color.Bold).Fprint(p.output, "PASS")
		fmt.Fprintf(p.output, "] %s: %s\n", name, message)
		return
	}
	fmt.Fprint(p.output, "  [")
	color.New(color.FgRed, color.Bold).Fprint(p.output, "FAIL")
	fmt.Fprintf(p.output, "] %s: %s\n", name, message)
}

// Section displays a section header with consistent formatting
func (p *TerminalPresenter) Section(title string) {
	if p.quiet {
		return
	}

	headerColor := color.New(color.Bold)
	headerColor.Fprintln(p.output, title)
	headerColor.Fprintln(p.output, strings.Repeat("-", len(title)))
}

// Table writes tab-aligned columns with an upper-case header row
func (p *TerminalPresenter) Table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(p.output, 0, 0, 2, ' ', 0)
	upper := make([]string, len(headers))
	for i, h := range headers {
		upper[i] = strings.ToUpper(h)
	}
	fmt.Fprintln(w, strings.Join(upper, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}

// Blank writes an empty line
func (p *TerminalPresenter) Blank() {
	if p.quiet {
		return
	}

	fmt.Fprintln(p.output)
}

// SetQuiet enables or disables quiet mode
func (p *TerminalPresenter) SetQuiet(quiet bool) {
	p.quiet = quiet
}

// IsQuiet returns whether quiet mode is enabled
func (p *TerminalPresenter) IsQuiet() bool {
	return p.quiet
}

var defaultPresenter Presenter = New()

// SetDefault replaces the presenter used by the package-level functions
func SetDefault(p Presenter) {
	defaultPresenter = p
}

// Error writes an error using the default presenter
func Error(err error, context string) { defaultPresenter.Error(err, context) }

// Warning writes a warning using the default presenter
func Warning(message string) { defaultPresenter.Warning(message) }

// Info writes a line using the default presenter
func Info(message string) { defaultPresenter.Info(message) }

// Success writes a highlighted line using the default presenter
func Success(message string) { defaultPresenter.Success(message) }

// Failure writes a failure line using the default presenter
func Failure(message string) { defaultPresenter.Failure(message) }

// Verdict writes a validation outcome using the default presenter
func Verdict(valid bool, message string) { defaultPresenter.Verdict(valid, message) }

// CheckResult writes a batch line using the default presenter
func CheckResult(name string, valid bool, message string) {
	defaultPresenter.CheckResult(name, valid, message)
}

// Section writes a header using the default presenter
func Section(title string) { defaultPresenter.Section(title) }

// Table writes a table using the default presenter
func Table(headers []string, rows [][]string) { defaultPresenter.Table(headers, rows) }

// Blank writes an empty line using the default presenter
func Blank() { defaultPresenter.Blank() }

// SetQuiet toggles quiet mode on the default presenter
func SetQuiet(quiet bool) { defaultPresenter.SetQuiet(quiet) }

// IsQuiet reports quiet mode of the default presenter
func IsQuiet() bool { return defaultPresenter.IsQuiet() }
