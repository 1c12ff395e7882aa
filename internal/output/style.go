package output

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Palette for branch and status rendering
var (
	colorBranch   = lipgloss.Color("#4ccbf1")
	colorCurrent  = lipgloss.Color("#4dca7d")
	colorSuccess  = lipgloss.Color("#6ead26")
	colorWarning  = lipgloss.Color("#f5c800")
	colorError    = lipgloss.Color("#f46251")
	colorMuted    = lipgloss.Color("#9f83e4")
	colorNeutral  = lipgloss.Color("#5084f3")
	colorsEnabled = true
)

// ConfigureColors disables styling when stdout is not a terminal or when
// NO_COLOR is set.
func ConfigureColors(noColor bool) {
	_, noColorEnv := os.LookupEnv("NO_COLOR")
	if noColor || noColorEnv || !isatty.IsTerminal(os.Stdout.Fd()) {
		DisableColors()
		return
	}
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
}

// DisableColors turns all styling into plain text.
func DisableColors() {
	colorsEnabled = false
	lipgloss.SetColorProfile(termenv.Ascii)
}

func render(color lipgloss.Color, bold bool, text string) string {
	if !colorsEnabled {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Bold(bold).Render(text)
}

// ColorBranchName styles a branch name, highlighting the current branch.
func ColorBranchName(name string, isCurrent bool) string {
	if isCurrent {
		return render(colorCurrent, true, name+" (current)")
	}
	return render(colorBranch, false, name)
}

// ColorPRNumber styles a pull request reference.
func ColorPRNumber(number int) string {
	return render(colorNeutral, false, fmt.Sprintf("#%d", number))
}

// ColorSuccess styles a success marker.
func ColorSuccess(text string) string {
	return render(colorSuccess, false, text)
}

// ColorWarning styles a warning marker.
func ColorWarning(text string) string {
	return render(colorWarning, false, text)
}

// ColorError styles an error marker.
func ColorError(text string) string {
	return render(colorError, true, text)
}

// ColorDim styles secondary text.
func ColorDim(text string) string {
	return render(colorMuted, false, text)
}
