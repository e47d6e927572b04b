package present

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Endpoints of the app name gradient.
var gradientFrom, gradientTo = mustHex("#F967DC"), mustHex("#6B50FF")

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// GradientRamp blends the gradient endpoints over n steps in Luv space.
func GradientRamp(n int) []lipgloss.Color {
	ramp := make([]lipgloss.Color, n)
	for i := range ramp {
		ramp[i] = lipgloss.Color(gradientFrom.BlendLuv(gradientTo, float64(i)/float64(n)).Hex())
	}
	return ramp
}

// GradientText colors each rune of s with the next step of the ramp.
// Strings shorter than three runes are returned unstyled.
func GradientText(base lipgloss.Style, s string) string {
	runes := []rune(s)
	if len(runes) < 3 {
		return s
	}
	var b strings.Builder
	for i, c := range GradientRamp(len(runes)) {
		b.WriteString(base.Foreground(c).Render(string(runes[i])))
	}
	return b.String()
}
