package cmd

import "github.com/charmbracelet/lipgloss"

// Common styles used across commands
var (
	// Status styles
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true) // Green
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))           // Red
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	askStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#BD93F9")).Bold(true)

	// Text styles
	faintStyle    = lipgloss.NewStyle().Faint(true)
	toolNameStyle = lipgloss.NewStyle().Bold(true)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#BD93F9"))
	methodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")) // Blue

	// Prompt styles
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B")).Bold(true)
)

// Line prefixes
const (
	infoPrefix    = "[i]"
	warnPrefix    = "[w]"
	errorPrefix   = "[!]"
	successPrefix = "[✔]"
	askPrefix     = "[?]"
)
