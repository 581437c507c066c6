package render

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	Accent      = lipgloss.Color("#8BC34A")
	Primary     = lipgloss.Color("#2196F3")
	Muted       = lipgloss.Color("#6B7280")
	Destructive = lipgloss.Color("#e53935")
	Warning     = lipgloss.Color("#FFC107")
)

// Styles holds the lipgloss styles used for chat output.
type Styles struct {
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	IntentBadge    lipgloss.Style
	FileBadge      lipgloss.Style
	Body           lipgloss.Style
	Placeholder    lipgloss.Style
	Muted          lipgloss.Style
	TableHeader    lipgloss.Style
	TableCell      lipgloss.Style
	ErrorBanner    lipgloss.Style
	WarningBanner  lipgloss.Style
	UserBubble     lipgloss.Style
	AssistantBox   lipgloss.Style
}

// DefaultStyles returns the standard chat styles.
func DefaultStyles() Styles {
	return Styles{
		UserLabel: lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true),

		AssistantLabel: lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true),

		IntentBadge: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(Primary).
			Padding(0, 1),

		FileBadge: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#101F38")).
			Background(Warning).
			Padding(0, 1),

		Body: lipgloss.NewStyle(),

		Placeholder: lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true),

		Muted: lipgloss.NewStyle().
			Foreground(Muted),

		TableHeader: lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1),

		TableCell: lipgloss.NewStyle().
			Padding(0, 1),

		ErrorBanner: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Destructive).
			Padding(0, 1),

		WarningBanner: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Warning).
			Padding(0, 1),

		UserBubble: lipgloss.NewStyle().
			PaddingLeft(2),

		AssistantBox: lipgloss.NewStyle().
			PaddingLeft(2).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(Accent),
	}
}
