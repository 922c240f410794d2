package main

import (
	"strings"

	"github.com/gdamore/tcell/v2"
)

// drawText writes text from x until maxX and returns the next free column.
func drawText(screen tcell.Screen, x, y, maxX int, text string, style tcell.Style) int {
	for _, ch := range text {
		if x >= maxX {
			break
		}
		screen.SetContent(x, y, ch, nil, style)
		x++
	}
	return x
}

func drawCentered(screen tcell.Screen, y, left, width int, text string, style tcell.Style) {
	x := left + (width-len([]rune(text)))/2
	if x < left {
		x = left
	}
	drawText(screen, x, y, left+width, text, style)
}

// drawOverlay dims the whole screen behind a dialog.
func drawOverlay(screen tcell.Screen, width, height int) {
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			screen.SetContent(x, y, ' ', nil, tcell.StyleDefault.Dim(true))
		}
	}
}

// centerRect places a w by h box in the middle of the screen, clamped to fit.
func centerRect(width, height, w, h int) (int, int, int, int) {
	x := (width - w) / 2
	y := (height - h) / 2
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x+w > width {
		w = width - x
	}
	if y+h > height {
		h = height - y
	}
	return x, y, w, h
}

// drawBox draws a bordered box with a reversed background.
func drawBox(screen tcell.Screen, boxX, boxY, boxW, boxH int) {
	border := tcell.StyleDefault.Bold(true)
	for y := boxY; y < boxY+boxH; y++ {
		for x := boxX; x < boxX+boxW; x++ {
			switch {
			case y == boxY && x == boxX:
				screen.SetContent(x, y, '┌', nil, border)
			case y == boxY && x == boxX+boxW-1:
				screen.SetContent(x, y, '┐', nil, border)
			case y == boxY+boxH-1 && x == boxX:
				screen.SetContent(x, y, '└', nil, border)
			case y == boxY+boxH-1 && x == boxX+boxW-1:
				screen.SetContent(x, y, '┘', nil, border)
			case y == boxY || y == boxY+boxH-1:
				screen.SetContent(x, y, '─', nil, border)
			case x == boxX || x == boxX+boxW-1:
				screen.SetContent(x, y, '│', nil, border)
			default:
				screen.SetContent(x, y, ' ', nil, tcell.StyleDefault.Reverse(true))
			}
		}
	}
}

func drawSeparator(screen tcell.Screen, boxX, y, boxW int) {
	border := tcell.StyleDefault.Bold(true)
	screen.SetContent(boxX, y, '├', nil, border)
	for x := boxX + 1; x < boxX+boxW-1; x++ {
		screen.SetContent(x, y, '─', nil, border)
	}
	screen.SetContent(boxX+boxW-1, y, '┤', nil, border)
}

// drawStatusLine fills a reversed line with left and right aligned text.
func drawStatusLine(screen tcell.Screen, y, width int, leftText, rightText string) {
	style := tcell.StyleDefault.Reverse(true)
	for x := 0; x < width; x++ {
		screen.SetContent(x, y, ' ', nil, style)
	}
	x := drawText(screen, 0, y, width, leftText, style)

	if rightText == "" {
		return
	}
	rightX := width - len([]rune(rightText))
	// Make sure there's at least one space between left and right
	if rightX <= x {
		rightX = x + 1
	}
	drawText(screen, rightX, y, width, rightText, style)
}

// wrapText breaks msg into lines of at most maxWidth characters on word boundaries.
func wrapText(msg string, maxWidth int) []string {
	var lines []string
	for _, paragraph := range strings.Split(msg, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		var currentLine string
		for _, word := range words {
			if currentLine != "" && len(currentLine)+len(word)+1 > maxWidth {
				lines = append(lines, currentLine)
				currentLine = ""
			}
			if currentLine != "" {
				currentLine += " "
			}
			currentLine += word
		}
		lines = append(lines, currentLine)
	}
	return lines
}
