// Package ui styles terminal output of the CLI with lipgloss.
//
// A [Palette] holds the named styles (title, ok, err, warn, help) used by command output.
// Styles degrade to plain text when the output is not a terminal.
package ui
