// Package compose contains the layer model, text layout, font resolution,
// and the filter-graph builder that turns ordered layers into a single-pass
// ffmpeg filter_complex chain.
package compose

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// Static errors for layer parsing and graph building.
var (
	// ErrNoUsableLayers is returned when, after filtering malformed
	// elements, no layer remains to composite.
	ErrNoUsableLayers = errors.New("compose: no usable layers")
)

// Kind identifies the type of a composition layer.
type Kind string

const (
	// KindText is a text overlay rendered with drawtext.
	KindText Kind = "text"
	// KindImage is an image overlay scaled and composited with overlay.
	KindImage Kind = "image"
)

// Align is a horizontal alignment directive for text layers.
type Align string

const (
	// AlignNone positions text at its explicit x offset.
	AlignNone Align = ""
	// AlignLeft block-renders text at a fixed left margin.
	AlignLeft Align = "left"
	// AlignCenter centers each line against its rendered width.
	AlignCenter Align = "center"
	// AlignRight renders each line flush against the right edge.
	AlignRight Align = "right"
)

// Default style values applied when an element omits them.
const (
	DefaultFontSize      = 48
	DefaultFontColor     = "white"
	DefaultMaxLineLength = 30
)

// Element is the raw descriptor for one composition element as received
// from the HTTP layer. Field names match the wire format.
type Element struct {
	Type          string `json:"Type"`
	Value         string `json:"Value"`
	XPos          int    `json:"xpos"`
	YPos          int    `json:"ypos"`
	Width         int    `json:"Width"`
	Height        int    `json:"Height"`
	FontSize      int    `json:"FontSize"`
	FontColor     string `json:"FontColor"`
	FontStyle     string `json:"FontStyle"`
	MaxLineLength int    `json:"MaxLineLength"`
	Align         string `json:"align"`
}

// Layer is one typed, validated composition element.
type Layer struct {
	// Kind is the layer type.
	Kind Kind
	// Text is the literal content for KindText layers.
	Text string
	// Data is the decoded binary content for KindImage layers.
	Data []byte
	// X and Y are the placement offsets. Align overrides X for text.
	X, Y int
	// Align is the horizontal alignment directive (text only).
	Align Align
	// Width and Height are the target dimensions; zero means unset.
	Width, Height int
	// FontStyle is the requested font style name (text only).
	FontStyle string
	// FontSize is the font size in points.
	FontSize int
	// FontColor is the font color name or hex value.
	FontColor string
	// MaxLineLength is the wrap budget in characters.
	MaxLineLength int
}

// ParseElements converts raw element descriptors into typed Layers.
// Malformed elements (unknown type, missing value, undecodable image data,
// invalid JSON) are dropped while preserving the relative order of the rest;
// the number of dropped elements is returned alongside the layers.
// Returns ErrNoUsableLayers if nothing survives filtering.
func ParseElements(raws []json.RawMessage) ([]Layer, int, error) {
	layers := make([]Layer, 0, len(raws))
	skipped := 0

	for _, raw := range raws {
		var el Element
		if err := json.Unmarshal(raw, &el); err != nil {
			skipped++
			continue
		}
		layer, ok := parseElement(el)
		if !ok {
			skipped++
			continue
		}
		layers = append(layers, layer)
	}

	if len(layers) == 0 {
		return nil, skipped, ErrNoUsableLayers
	}
	return layers, skipped, nil
}

// parseElement validates and converts a single element.
func parseElement(el Element) (Layer, bool) {
	layer := Layer{
		X:             el.XPos,
		Y:             el.YPos,
		Width:         el.Width,
		Height:        el.Height,
		FontStyle:     el.FontStyle,
		FontSize:      el.FontSize,
		FontColor:     el.FontColor,
		MaxLineLength: el.MaxLineLength,
	}
	if layer.FontSize <= 0 {
		layer.FontSize = DefaultFontSize
	}
	if layer.FontColor == "" {
		layer.FontColor = DefaultFontColor
	}
	if layer.MaxLineLength <= 0 {
		layer.MaxLineLength = DefaultMaxLineLength
	}

	switch strings.ToLower(el.Type) {
	case "text":
		if el.Value == "" {
			return Layer{}, false
		}
		layer.Kind = KindText
		layer.Text = el.Value
		layer.Align = parseAlign(el.Align)
		return layer, true
	case "image":
		if el.Value == "" {
			return Layer{}, false
		}
		data, err := base64.StdEncoding.DecodeString(el.Value)
		if err != nil || len(data) == 0 {
			return Layer{}, false
		}
		layer.Kind = KindImage
		layer.Data = data
		return layer, true
	default:
		return Layer{}, false
	}
}

// parseAlign maps a wire alignment string to an Align directive.
// Unknown values fall back to explicit positioning.
func parseAlign(s string) Align {
	switch strings.ToLower(s) {
	case "left":
		return AlignLeft
	case "center", "centre":
		return AlignCenter
	case "right":
		return AlignRight
	default:
		return AlignNone
	}
}
