package compose

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// lineSpacingFactor is the vertical advance between wrapped lines,
// expressed as a multiple of the font size.
const lineSpacingFactor = 1.2

// rightEdgeMargin is the fixed margin, in pixels, kept between
// right-aligned text and the right canvas edge.
const rightEdgeMargin = 10

// leftEdgeMargin is the fixed left margin for block-rendered text.
const leftEdgeMargin = 10

// WrapText greedily packs whitespace-delimited words into lines of at most
// maxChars characters, counted in runes. A single word longer than maxChars
// occupies its own line unsplit. The result is never empty: whitespace-only
// input produces a single empty line for the caller to handle.
func WrapText(s string, maxChars int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}

	lines := make([]string, 0, 1)
	var line strings.Builder
	lineRunes := 0
	for _, word := range words {
		wordRunes := utf8.RuneCountInString(word)
		if lineRunes == 0 {
			line.WriteString(word)
			lineRunes = wordRunes
			continue
		}
		if lineRunes+1+wordRunes > maxChars {
			lines = append(lines, line.String())
			line.Reset()
			line.WriteString(word)
			lineRunes = wordRunes
			continue
		}
		line.WriteByte(' ')
		line.WriteString(word)
		lineRunes += 1 + wordRunes
	}
	lines = append(lines, line.String())
	return lines
}

// LineOffsetY computes the vertical offset of the line at index,
// starting from baseY and advancing by the line spacing for fontSize.
func LineOffsetY(baseY, index, fontSize int) int {
	advance := int(math.Round(float64(fontSize) * lineSpacingFactor))
	return baseY + index*advance
}

// xExpression returns the drawtext x placement for a text layer.
// Centered and right-aligned text use render-time width expressions;
// left alignment pins the block to a fixed margin; otherwise the
// explicit offset is used.
func xExpression(align Align, x int) string {
	switch align {
	case AlignCenter:
		return "(w-text_w)/2"
	case AlignRight:
		return fmt.Sprintf("w-text_w-%d", rightEdgeMargin)
	case AlignLeft:
		return strconv.Itoa(leftEdgeMargin)
	default:
		return strconv.Itoa(x)
	}
}
