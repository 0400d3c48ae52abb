package tui

import "github.com/charmbracelet/lipgloss"

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorMuted  = ac("240", "245")
	colorAccent = ac("#0969da", "#58a6ff")
	colorError  = ac("#cf222e", "#ff7b72")
	colorOK     = ac("#1a7f37", "#3fb950")
	colorBorder = ac("250", "243")
)

func styleMuted() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorMuted)
}

func styleHeader() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
}

func styleError() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorError)
}

func styleOK() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorOK)
}

func styleLabel() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Width(13)
}

// renderModalBox frames content with a title, wrapped to width
func renderModalBox(width int, title, content string) string {
	w := width - 4
	if w > 72 {
		w = 72
	}
	if w < 30 {
		w = 30
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(w)
	return box.Render(styleHeader().Render(title) + "\n\n" + content)
}
