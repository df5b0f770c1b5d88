package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/datasources/internal/ui/listview"
)

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorText      = lipgloss.Color("255")
	colorBar       = lipgloss.Color("236")
)

// HeaderStyle for the board title line.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Padding(0, 1)

// HeaderStats style for the counters next to the title.
var HeaderStats = lipgloss.NewStyle().
	Foreground(colorSecondary)

// DoneCount style for the finished-task counter.
var DoneCount = lipgloss.NewStyle().
	Foreground(colorSuccess).
	Bold(true)

// PaneTitle style for the history pane heading.
var PaneTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorPrimary).
	Padding(0, 1)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(colorText).
	Background(colorBar).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true).
	Padding(0, 1)

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// InputBar style for the add/rename input line.
var InputBar = lipgloss.NewStyle().
	Foreground(colorText).
	Background(colorMuted).
	Padding(0, 1)

// InputBarPrompt style for the input prompt.
var InputBarPrompt = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// DebugPanel frames the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle for section headings inside the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// listStyles returns the list widget styles for a theme ("dark" or "light").
func listStyles(theme string) listview.Styles {
	s := listview.DefaultStyles()
	if theme == "light" {
		s.Row = s.Row.Foreground(lipgloss.Color("235"))
		s.Selected = s.Selected.Background(lipgloss.Color("153")).Foreground(lipgloss.Color("232"))
		s.Header = s.Header.Foreground(lipgloss.Color("25"))
	}
	return s
}

// compactStyles drops the row padding for the compact density mode.
func compactStyles(s listview.Styles) listview.Styles {
	s.Row = s.Row.Padding(0)
	s.Selected = s.Selected.Padding(0)
	return s
}
