package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow, color.Bold)
	red    = color.New(color.FgRed)
)

// ui prints the human-readable summary; stdout stays reserved for data
type ui struct {
	w io.Writer
}

// Header prints a formatted header
func (u ui) Header(text string) {
	line := strings.Repeat("=", 60)
	green.Fprintf(u.w, "%s\n", line)
	green.Fprintf(u.w, "%s\n", center(text, 60))
	green.Fprintf(u.w, "%s\n", line)
}

// Success prints a success message
func (u ui) Success(text string) {
	green.Fprintf(u.w, "  → %s\n", text)
}

// Info prints an info message
func (u ui) Info(text string) {
	fmt.Fprintf(u.w, "  → %s\n", text)
}

// Warning prints a warning message
func (u ui) Warning(text string) {
	yellow.Fprintf(u.w, "  ⚠ %s\n", text)
}

// Error prints an error message
func (u ui) Error(text string) {
	red.Fprintf(u.w, "Error: %s\n", text)
}

// center centers text within a given width
func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text
}
