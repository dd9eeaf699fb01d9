package report

import (
	"math"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	terminalWidthFallback = 80
	maxProbabilityBar     = 40
	minProbabilityBar     = 10
)

// TerminalWidth returns the width of the terminal attached to f, or a
// fixed fallback when f is not a terminal.
func TerminalWidth(f *os.File) int {
	if !term.IsTerminal(int(f.Fd())) {
		return terminalWidthFallback
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthFallback
	}
	return width
}

// probabilityBarWidth leaves room for the user and percentage columns.
func probabilityBarWidth(totalWidth int) int {
	width := totalWidth / 2
	if width > maxProbabilityBar {
		width = maxProbabilityBar
	}
	if width < minProbabilityBar {
		width = minProbabilityBar
	}
	return width
}

func probabilityBar(p float64, width int) string {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	filled := int(math.Round(p * float64(width)))
	return strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
}
