// Package ui holds the terminal-side view state shared across commands:
// the background gradient, popups and the modal route.
package ui

import (
	"strconv"
	"sync"

	"github.com/Nekos-API/Nekos.Land/internal/colorx"
	"github.com/charmbracelet/lipgloss"
)

// DefaultGradient is shown until an image with a dominant colour loads.
const DefaultGradient = "#4c0519"

// GradientWriter is handed only to the component that owns the gradient.
type GradientWriter interface {
	SetGradient(color string)
}

// GradientReader is what every other view gets.
type GradientReader interface {
	Gradient() string
}

// Theme is the process-wide gradient colour and the styles derived from it.
type Theme struct {
	mu       sync.RWMutex
	gradient string
}

func NewTheme() *Theme {
	return &Theme{gradient: DefaultGradient}
}

// SetGradient stores color normalised to #rrggbb. Unparseable colours reset
// the gradient to DefaultGradient.
func (t *Theme) SetGradient(color string) {
	c, err := colorx.Parse(color)
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.gradient = DefaultGradient
		return
	}
	t.gradient = c.Hex()
}

func (t *Theme) Gradient() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gradient
}

// Banner renders text on the current gradient.
func (t *Theme) Banner(text string) string {
	return blockStyle(t.Gradient()).Bold(true).Render(text)
}

// Swatch renders a palette entry labelled with its hex value.
func Swatch(color string) string {
	c, err := colorx.Parse(color)
	if err != nil {
		return color
	}
	return blockStyle(c.Hex()).Render(c.Hex())
}

// Palette renders swatches side by side, numbered from 1 for copycolor.
func Palette(colors []string) string {
	if len(colors) == 0 {
		return "no palette"
	}
	cells := make([]string, 0, len(colors))
	for i, c := range colors {
		cells = append(cells, lipgloss.JoinVertical(lipgloss.Center, Swatch(c), strconv.Itoa(i+1)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, intersperse(cells, " ")...)
}

func blockStyle(hex string) lipgloss.Style {
	fg := "#ffffff"
	if c, err := colorx.Parse(hex); err == nil && colorx.IsLight(c) {
		fg = "#000000"
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(hex)).
		Foreground(lipgloss.Color(fg)).
		Padding(0, 1)
}

func intersperse(items []string, sep string) []string {
	out := make([]string, 0, len(items)*2)
	for i, it := range items {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, it)
	}
	return out
}

