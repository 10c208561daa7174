package main

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Underline(true)

	BuyStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))

	SellStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	HelpStyle = lipgloss.NewStyle().Faint(true)

	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("160"))

	BoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
