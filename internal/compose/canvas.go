package compose

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Default canvas dimensions used when a ratio string is unrecognized.
const (
	DefaultCanvasWidth  = 1080
	DefaultCanvasHeight = 1080
)

// ratioSizes maps aspect-ratio strings to fixed pixel dimensions.
var ratioSizes = map[string][2]int{
	"1:1":  {1080, 1080},
	"9:16": {1080, 1920},
	"16:9": {1920, 1080},
	"4:5":  {1080, 1350},
}

// rawSizePattern matches an explicit "WxH" dimension string.
var rawSizePattern = regexp.MustCompile(`^(\d+)x(\d+)$`)

// Canvas describes the base surface layers are composited onto: either a
// generated solid-color background of Width x Height, or a pre-existing
// base video stream at BaseVideo.
type Canvas struct {
	Width  int
	Height int
	// Color is the background color for generated canvases.
	Color string
	// BaseVideo is the path to a base video file. When set, the canvas is
	// the video stream rather than a generated background.
	BaseVideo string
}

// Generated reports whether the canvas is a solid-color background
// rather than a base video stream.
func (c Canvas) Generated() bool {
	return c.BaseVideo == ""
}

// SourceSpec returns the lavfi source expression for a generated canvas.
func (c Canvas) SourceSpec() string {
	color := c.Color
	if color == "" {
		color = "black"
	}
	return fmt.Sprintf("color=c=%s:s=%dx%d:d=1", color, c.Width, c.Height)
}

// SizeForRatio maps an aspect-ratio string to pixel dimensions. Known
// ratios use the fixed lookup table, raw "WxH" strings pass through
// verbatim, and anything else falls back to the default square size.
func SizeForRatio(ratio string) (int, int) {
	ratio = strings.TrimSpace(ratio)
	if size, ok := ratioSizes[ratio]; ok {
		return size[0], size[1]
	}
	if m := rawSizePattern.FindStringSubmatch(ratio); m != nil {
		w, _ := strconv.Atoi(m[1])
		h, _ := strconv.Atoi(m[2])
		if w > 0 && h > 0 {
			return w, h
		}
	}
	return DefaultCanvasWidth, DefaultCanvasHeight
}
