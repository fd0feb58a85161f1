package app

import "charm.land/lipgloss/v2"

var (
	headerStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	helpStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	busyStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("110")).Bold(true)
	sessionStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	sessionPinnedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("120"))
	selectedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("236"))
	dividerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	userLabelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("69")).Bold(true)
	agentLabelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("114")).Bold(true)
	systemLabelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	reasoningStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Faint(true)
	toolStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("179"))
	trimNoticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	revertNoticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("180")).Italic(true)
	promptFrameStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("208")).Padding(0, 1)
)
