package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

type promptCell struct {
	s       string
	width   int
	isSpace bool
}

func buildPromptCells(promptRunes, inputRunes []rune, cursorIndex int) []promptCell {
	out := make([]promptCell, 0, len(promptRunes))
	for i, target := range promptRunes {
		displayed := target
		style := pendingStyle
		if i < len(inputRunes) {
			switch {
			case target == ' ' && inputRunes[i] != ' ':
				displayed = '•'
				style = errorStyle
			case inputRunes[i] == target:
				style = typedStyle
			default:
				style = errorStyle
			}
		}
		if i == cursorIndex && i >= len(inputRunes) {
			style = style.Underline(true)
		}
		out = append(out, promptCell{
			s:       style.Render(string(displayed)),
			width:   runewidth.RuneWidth(displayed),
			isSpace: target == ' ',
		})
	}
	return out
}

func renderPromptCells(cells []promptCell) string {
	var b strings.Builder
	for _, cell := range cells {
		b.WriteString(cell.s)
	}
	return b.String()
}

func wrapPromptCells(cells []promptCell, width int) string {
	if width <= 0 {
		return renderPromptCells(cells)
	}
	var out strings.Builder
	line := make([]promptCell, 0, len(cells))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(cells); {
		cell := cells[i]
		if lineWidth+cell.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderPromptCells(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]promptCell{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderPromptCells(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, cell)
		lineWidth += cell.width
		if cell.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderPromptCells(line))
	return out.String()
}

func lineWidthOf(line []promptCell) int {
	total := 0
	for _, cell := range line {
		total += cell.width
	}
	return total
}

func lastSpaceIndex(line []promptCell) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
