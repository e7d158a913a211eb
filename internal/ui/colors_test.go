package ui

import (
	"strings"
	"testing"
)

func TestPalette(t *testing.T) {
	p := NewPalette("#000000", "#000000", "#000000", "#000000", "#000000")

	t.Run("Render Keeps Text", func(t *testing.T) {
		for _, got := range []string{p.Title("title"), p.OK("ok"), p.Err("err"), p.Warn("warn"), p.Help("help")} {
			if strings.TrimSpace(got) == "" {
				t.Errorf("expected rendered text, got %q", got)
			}
		}
		if !strings.Contains(p.OK("done"), "done") {
			t.Errorf("expected text to survive styling, got %q", p.OK("done"))
		}
	})

	t.Run("Table Aligns Columns", func(t *testing.T) {
		out := p.Table(
			[]string{"ID", "NAME"},
			[][]string{{"u1", "Short"}, {"user-two", "Longer Name"}},
		)

		lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and 2 rows, got %d lines: %q", len(lines), out)
		}
		if idx := strings.Index(lines[1], "Short"); idx != strings.Index(lines[2], "Longer Name") {
			t.Errorf("expected second column aligned, got %q", out)
		}
		if !strings.HasPrefix(lines[2], "user-two  ") {
			t.Errorf("unexpected row %q", lines[2])
		}
	})

	t.Run("Table Without Rows", func(t *testing.T) {
		out := p.Table([]string{"ID"}, nil)
		if !strings.Contains(out, "ID") || strings.Count(out, "\n") != 1 {
			t.Errorf("expected only the header, got %q", out)
		}
	})
}
