// Package output provides terminal formatting for the ai-tools commands.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// ColorMode selects when colours are used.
type ColorMode int

const (
	// ColorAuto follows NO_COLOR, TERM and the output.colors setting.
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// PrinterOptions configures a Printer.
type PrinterOptions struct {
	ColorMode    ColorMode
	ConfigColors bool // output.colors from the config file
	Quiet        bool
}

// Printer writes command output. Results go to out, warnings and errors to
// err. A quiet printer only reports errors.
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
	quiet     bool
}

// ParseColorMode parses the --color flag.
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "auto", "":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	}
	return ColorAuto, fmt.Errorf("invalid color mode %q: must be auto, always, or never", s)
}

// ResolveColors reports whether output should be coloured.
func ResolveColors(mode ColorMode, configColors bool) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return configColors
}

// NewPrinter creates a printer writing results to out and diagnostics to err.
func NewPrinter(out, err io.Writer, opts PrinterOptions) *Printer {
	return &Printer{
		out:       out,
		err:       err,
		useColors: ResolveColors(opts.ColorMode, opts.ConfigColors),
		quiet:     opts.Quiet,
	}
}

// line writes one message, prefixed by symbol when colours are on and by
// plain otherwise.
func (p *Printer) line(w io.Writer, attr color.Attribute, symbol, plain, format string, args []interface{}) {
	msg := fmt.Sprintf(format, args...)
	if !p.useColors {
		fmt.Fprintln(w, plain+msg)
		return
	}
	color.New(attr).Fprintln(w, symbol+msg)
}

func (p *Printer) Info(format string, args ...interface{}) {
	if !p.quiet {
		p.line(p.out, color.FgCyan, "", "", format, args)
	}
}

func (p *Printer) Success(format string, args ...interface{}) {
	if !p.quiet {
		p.line(p.out, color.FgGreen, "✓ ", "[OK] ", format, args)
	}
}

func (p *Printer) Warning(format string, args ...interface{}) {
	if !p.quiet {
		p.line(p.err, color.FgYellow, "⚠ ", "[WARN] ", format, args)
	}
}

// Error is printed even when the printer is quiet.
func (p *Printer) Error(format string, args ...interface{}) {
	p.line(p.err, color.FgRed, "✗ ", "[ERROR] ", format, args)
}

// Header prints an underlined section title.
func (p *Printer) Header(title string) {
	if p.quiet {
		return
	}
	if !p.useColors {
		fmt.Fprintf(p.out, "\n%s\n%s\n", title, strings.Repeat("-", len([]rune(title))))
		return
	}
	color.New(color.Bold).Fprintf(p.out, "\n%s\n", title)
	fmt.Fprintln(p.out, strings.Repeat("─", len([]rune(title))))
}

// StatusBadge returns a short marker for an item outcome.
func (p *Printer) StatusBadge(ok bool) string {
	switch {
	case p.useColors && ok:
		return color.GreenString("●")
	case p.useColors:
		return color.RedString("●")
	case ok:
		return "[OK]"
	}
	return "[FAIL]"
}

// Swatch returns a block painted in the given #RRGGBB colour, or the hex
// string itself when colours are off.
func (p *Printer) Swatch(hex string) string {
	if !p.useColors {
		return hex
	}
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return hex
	}
	return color.RGB(r, g, b).Sprint("██") + " " + hex
}

func (p *Printer) Bold(text string) string {
	if p.useColors {
		return color.New(color.Bold).Sprint(text)
	}
	return text
}

func (p *Printer) Dim(text string) string {
	if p.useColors {
		return color.New(color.Faint).Sprint(text)
	}
	return text
}
