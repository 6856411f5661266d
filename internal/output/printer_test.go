package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseColorMode_Valid(t *testing.T) {
	tests := []struct {
		input string
		want  ColorMode
	}{
		{"auto", ColorAuto},
		{"", ColorAuto},
		{"always", ColorAlways},
		{"never", ColorNever},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseColorMode(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseColorMode(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseColorMode_Invalid(t *testing.T) {
	if _, err := ParseColorMode("sometimes"); err == nil {
		t.Error("expected error for invalid color mode, got nil")
	}
}

func TestResolveColors(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if !ResolveColors(ColorAlways, false) {
		t.Error("ColorAlways should win over NO_COLOR")
	}
	if ResolveColors(ColorAuto, true) {
		t.Error("NO_COLOR should disable colors in auto mode")
	}
	if ResolveColors(ColorNever, true) {
		t.Error("ColorNever should disable colors")
	}
}

func newTestPrinter(quiet bool) (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	p := NewPrinter(&out, &errOut, PrinterOptions{ColorMode: ColorNever, Quiet: quiet})
	return p, &out, &errOut
}

func TestPrinter_Messages(t *testing.T) {
	p, out, errOut := newTestPrinter(false)

	p.Info("reading %d files", 3)
	p.Success("wrote %s", "cat.webp")
	p.Warning("skipped %s", "notes.txt")
	p.Error("failed %s", "broken.png")
	p.Header("Palette")

	got := out.String()
	for _, want := range []string{"reading 3 files\n", "[OK] wrote cat.webp\n", "\nPalette\n-------\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("stdout %q is missing %q", got, want)
		}
	}
	gotErr := errOut.String()
	for _, want := range []string{"[WARN] skipped notes.txt\n", "[ERROR] failed broken.png\n"} {
		if !strings.Contains(gotErr, want) {
			t.Errorf("stderr %q is missing %q", gotErr, want)
		}
	}
}

func TestPrinter_Quiet(t *testing.T) {
	p, out, errOut := newTestPrinter(true)

	p.Info("hidden")
	p.Success("hidden")
	p.Warning("hidden")
	p.Header("hidden")
	p.Error("shown")

	if out.Len() != 0 {
		t.Errorf("quiet printer wrote %q", out.String())
	}
	if !strings.Contains(errOut.String(), "shown") {
		t.Error("errors must be printed in quiet mode")
	}
}

func TestPrinter_PlainHelpers(t *testing.T) {
	p, _, _ := newTestPrinter(false)

	if p.StatusBadge(true) != "[OK]" || p.StatusBadge(false) != "[FAIL]" {
		t.Errorf("badges: %s %s", p.StatusBadge(true), p.StatusBadge(false))
	}
	if p.Swatch("#FF0000") != "#FF0000" {
		t.Errorf("Swatch without colors: %s", p.Swatch("#FF0000"))
	}
	if p.Bold("x") != "x" || p.Dim("y") != "y" {
		t.Error("Bold and Dim should be no-ops without colors")
	}
}

func TestTable_Render(t *testing.T) {
	p, out, _ := newTestPrinter(false)

	table := p.NewTable("File", "Size")
	table.AddRow("cat.webp", "1200x800")
	table.AddRow("dog.webp", "640x480")
	if err := table.Render(); err != nil {
		t.Fatal(err)
	}

	got := out.String()
	for _, want := range []string{"FILE", "cat.webp", "640x480"} {
		if !strings.Contains(got, want) {
			t.Errorf("table output %q is missing %q", got, want)
		}
	}
}

func TestTable_Quiet(t *testing.T) {
	p, out, _ := newTestPrinter(true)
	table := p.NewTable("A")
	table.AddRow("1")
	if err := table.Render(); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Errorf("quiet table wrote %q", out.String())
	}
}
