package present

import (
	"io"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"
)

func TestGradientRamp(t *testing.T) {
	ramp := GradientRamp(4)
	require.Len(t, ramp, 4)
	require.NotEqual(t, ramp[0], ramp[3])
	require.Empty(t, GradientRamp(0))
}

func TestGradientText(t *testing.T) {
	base := lipgloss.NewRenderer(io.Discard).NewStyle()

	require.Equal(t, "ab", GradientText(base, "ab"))
	// Multi-byte runes each get one ramp step.
	require.Equal(t, "héllo", GradientText(base, "héllo"))
}
