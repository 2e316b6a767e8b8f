package tui

import "strings"

// barChars is the ramp used for the fractional top cell of each bar.
var barChars = []rune{' ', ' ', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// renderSparkline draws values as a block-character bar graph of the
// given width and height. Bars are scaled to the maximum value in the
// window; an empty history renders as blank rows.
func renderSparkline(values []int, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}

	rows := make([][]rune, height)
	for y := range rows {
		rows[y] = make([]rune, width)
		for x := range rows[y] {
			rows[y][x] = ' '
		}
	}

	if len(values) > 0 {
		max := 0
		for _, v := range values {
			if v > max {
				max = v
			}
		}
		for x := 0; x < width; x++ {
			idx := x * len(values) / width
			var barHeight float64
			if max > 0 {
				barHeight = float64(values[idx]) / float64(max) * float64(height)
			}
			full := int(barHeight)
			frac := barHeight - float64(full)
			for y := 0; y < full && y < height; y++ {
				rows[height-1-y][x] = '█'
			}
			if full < height {
				rows[height-1-full][x] = barChars[int(frac*float64(len(barChars)-1))]
			}
		}
	}

	lines := make([]string, height)
	for y := range rows {
		lines[y] = string(rows[y])
	}
	return strings.Join(lines, "\n")
}
