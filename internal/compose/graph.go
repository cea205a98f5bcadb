package compose

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// OutputLabel is the terminal label every built graph renames its last
// stage output to; the command assembler maps it to the output stream.
const OutputLabel = "[vout]"

// Stage is one node in the composition pipeline: a filter expression,
// the labels it consumes, and the label it produces.
type Stage struct {
	// Inputs are the stream labels consumed by this stage, in order.
	Inputs []string
	// Output is the unique label produced by this stage.
	Output string
	// Expr is the filter expression without labels.
	Expr string
}

// StagedFile is a binary resource that must be written to the scratch
// area before execution. Files map to extra ffmpeg inputs in order:
// the i-th staged file is input index i+1.
type StagedFile struct {
	// Name is a filename hint including an extension matching the content.
	Name string
	// Data is the raw file content.
	Data []byte
}

// Graph is the built composition pipeline.
type Graph struct {
	// Stages is the ordered stage chain. Every stage consumes either the
	// canvas label or an earlier stage's output.
	Stages []Stage
	// Files are the binary resources to stage before execution.
	Files []StagedFile
}

// FilterComplex renders the graph as a single filter_complex expression.
func (g *Graph) FilterComplex() string {
	parts := make([]string, 0, len(g.Stages))
	for _, st := range g.Stages {
		parts = append(parts, strings.Join(st.Inputs, "")+st.Expr+st.Output)
	}
	return strings.Join(parts, ";")
}

// Builder constructs filter graphs from ordered layer lists.
type Builder struct {
	fonts FontResolver
}

// NewBuilder creates a Builder using the given font resolver.
func NewBuilder(fonts FontResolver) *Builder {
	return &Builder{fonts: fonts}
}

// Build produces the stage chain compositing layers onto the canvas, in
// order, so later layers render on top of earlier ones. Labels are
// deterministic, keyed by layer index and sub-index, and every stage
// consumes the running label produced by its predecessor.
// Returns ErrNoUsableLayers for an empty layer list.
func (b *Builder) Build(canvas Canvas, layers []Layer) (*Graph, error) {
	if len(layers) == 0 {
		return nil, ErrNoUsableLayers
	}

	g := &Graph{}
	current := "[0:v]"

	for i, layer := range layers {
		switch layer.Kind {
		case KindImage:
			current = b.addImageStages(g, canvas, layer, i, current)
		case KindText:
			current = b.addTextStages(g, layer, i, current)
		}
	}

	g.Stages = append(g.Stages, Stage{
		Inputs: []string{current},
		Output: OutputLabel,
		Expr:   "copy",
	})
	return g, nil
}

// addImageStages stages the layer's bytes as an extra input, scales it,
// and overlays it onto the running stream.
func (b *Builder) addImageStages(g *Graph, canvas Canvas, layer Layer, idx int, current string) string {
	inputIdx := 1 + len(g.Files)
	g.Files = append(g.Files, StagedFile{
		Name: fmt.Sprintf("layer%d%s", idx, imageExtension(layer.Data)),
		Data: layer.Data,
	})

	scaled := fmt.Sprintf("[scl%d]", idx)
	g.Stages = append(g.Stages, Stage{
		Inputs: []string{fmt.Sprintf("[%d:v]", inputIdx)},
		Output: scaled,
		Expr:   scaleExpr(canvas, layer),
	})

	out := fmt.Sprintf("[ov%d]", idx)
	g.Stages = append(g.Stages, Stage{
		Inputs: []string{current, scaled},
		Output: out,
		Expr:   fmt.Sprintf("overlay=%d:%d", layer.X, layer.Y),
	})
	return out
}

// scaleExpr picks the scale expression for an image layer. Both
// dimensions scale exactly, ignoring aspect; a single dimension scales
// aspect-preserved with even rounding; neither fills the canvas height.
func scaleExpr(canvas Canvas, layer Layer) string {
	switch {
	case layer.Width > 0 && layer.Height > 0:
		return fmt.Sprintf("scale=%d:%d", layer.Width, layer.Height)
	case layer.Width > 0:
		return fmt.Sprintf("scale=%d:-2", layer.Width)
	case layer.Height > 0:
		return fmt.Sprintf("scale=-2:%d", layer.Height)
	default:
		h := canvas.Height
		if h <= 0 {
			h = DefaultCanvasHeight
		}
		return fmt.Sprintf("scale=-2:%d", h)
	}
}

// addTextStages emits drawtext stages for a text layer. Center and right
// alignment draw each wrapped line independently so per-line widths can
// be computed at render time; everything else renders the wrapped text
// as one block. Whitespace-only text emits nothing and leaves the
// running label untouched.
func (b *Builder) addTextStages(g *Graph, layer Layer, idx int, current string) string {
	lines := WrapText(layer.Text, layer.MaxLineLength)
	if len(lines) == 1 && lines[0] == "" {
		return current
	}

	font := b.fonts.Resolve(layer.FontStyle)

	if layer.Align == AlignCenter || layer.Align == AlignRight {
		for j, line := range lines {
			out := fmt.Sprintf("[txt%d_%d]", idx, j)
			g.Stages = append(g.Stages, Stage{
				Inputs: []string{current},
				Output: out,
				Expr: drawtextExpr(font, line, layer,
					xExpression(layer.Align, layer.X),
					LineOffsetY(layer.Y, j, layer.FontSize)),
			})
			current = out
		}
		return current
	}

	out := fmt.Sprintf("[txt%d]", idx)
	g.Stages = append(g.Stages, Stage{
		Inputs: []string{current},
		Output: out,
		Expr: drawtextExpr(font, strings.Join(lines, "\n"), layer,
			xExpression(layer.Align, layer.X), layer.Y),
	})
	return out
}

// drawtextExpr renders one drawtext filter expression. Every wire-supplied
// string (text, font, color) is escaped and quoted so it can only ever be a
// value, never additional filter options.
func drawtextExpr(font FontRef, text string, layer Layer, xExpr string, y int) string {
	var sb strings.Builder
	sb.WriteString("drawtext=")
	if font.File != "" {
		fmt.Fprintf(&sb, "fontfile='%s':", EscapeFilterValue(font.File))
	} else {
		fmt.Fprintf(&sb, "font='%s':", EscapeFilterValue(font.Family))
	}
	fmt.Fprintf(&sb, "text='%s':fontcolor='%s':fontsize=%d:x=%s:y=%d",
		EscapeFilterValue(text), EscapeFilterValue(layer.FontColor), layer.FontSize, xExpr, y)
	return sb.String()
}

// imageExtension picks a filename extension matching the detected
// content type, so ffmpeg's probing has a consistent hint.
func imageExtension(data []byte) string {
	ext := mimetype.Detect(data).Extension()
	if ext == "" {
		return ".png"
	}
	return ext
}
