package console

import (
	"math"
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")). // yellow
			Bold(true).
			PaddingLeft(1)

	houseStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("160")). // blood red
			Bold(true)

	descriptionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	exitLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("37")) // cyan

	exitStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")) // bright cyan

	captionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")). // dark grey
			Italic(true)

	echoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	flickerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // amber

	effectStyle = lipgloss.NewStyle().
			PaddingLeft(1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

const (
	greyRampStart = 232
	greyRampSteps = 24
)

// fadeColor maps an opacity in [0,1] onto the 256-color grey ramp.
func fadeColor(opacity float64) lipgloss.Color {
	opacity = math.Max(0, math.Min(1, opacity))
	step := int(math.Round(opacity * float64(greyRampSteps-1)))
	return lipgloss.Color(strconv.Itoa(greyRampStart + step))
}
