package ui

import "github.com/charmbracelet/lipgloss"

// Severity styles for user-facing messages
var (
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
)

// ErrorMarker returns the styled marker printed before fatal errors
func ErrorMarker() string {
	return ErrorStyle.Render("ERROR")
}

// WarningMarker returns the styled marker for non-fatal warnings
func WarningMarker() string {
	return WarningStyle.Render("WARNING")
}

// SuccessMarker returns the styled marker for a completed run
func SuccessMarker() string {
	return SuccessStyle.Render("OK")
}
