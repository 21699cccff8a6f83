package cmd

import (
	"charm.land/lipgloss/v2"
	"github.com/muesli/termenv"

	"github.com/guilhermegouw/chatmem/internal/message"
)

var (
	primary = lipgloss.Color("#7D56F4")
	muted   = lipgloss.Color("#6C6C6C")
	warning = lipgloss.Color("#F5A623")
	danger  = lipgloss.Color("#E5534B")
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(primary)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	warnStyle    = lipgloss.NewStyle().Foreground(warning)
	errorStyle   = lipgloss.NewStyle().Foreground(danger).Bold(true)
	userStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	botStyle     = lipgloss.NewStyle().Bold(true).Foreground(primary)
)

// roleLabel renders the transcript label for role.
func roleLabel(role message.Role) string {
	if role == message.RoleAssistant {
		return botStyle.Render(role.Label() + ":")
	}
	return userStyle.Render(role.Label() + ":")
}

// hasDarkBackground reports whether the terminal background is dark.
func hasDarkBackground() bool {
	return termenv.HasDarkBackground()
}
