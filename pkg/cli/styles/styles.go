package styles

import "github.com/charmbracelet/lipgloss"

var darkMode = lipgloss.HasDarkBackground()

var (
	accented  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff"))
	secondary = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	faint     = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	bold      = lipgloss.NewStyle().Bold(true)

	accentedLight  = lipgloss.NewStyle().Foreground(lipgloss.Color("#000000"))
	secondaryLight = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
	faintLight     = lipgloss.NewStyle().Foreground(lipgloss.Color("#aaaaaa"))

	hardDependency = lipgloss.NewStyle().Foreground(lipgloss.Color("#3b82f6"))
	softDependency = lipgloss.NewStyle().Foreground(lipgloss.Color("#a3a3a3")).Italic(true)
)

func Accented() lipgloss.Style {
	if !darkMode {
		return accentedLight
	}
	return accented
}

func Secondary() lipgloss.Style {
	if !darkMode {
		return secondaryLight
	}
	return secondary
}

func Faint() lipgloss.Style {
	if !darkMode {
		return faintLight
	}
	return faint
}

func Bold() lipgloss.Style {
	return bold
}

// Dependency returns the style of a dependency of the given type, "hard" or
// "soft".
func Dependency(kind string) lipgloss.Style {
	if kind == "soft" {
		return softDependency
	}
	return hardDependency
}
