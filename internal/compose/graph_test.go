package compose

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"testing"
)

func testBuilder() *Builder {
	return NewBuilder(NewStyleResolver("/fonts", "/fonts/default.ttf"))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(onePixelPNG)
	if err != nil {
		t.Fatalf("decode test png: %v", err)
	}
	return data
}

// checkChain verifies the graph label discipline: every stage input is
// either the canvas label, a staged input label, or a previously
// produced output; outputs are unique; the last stage produces the
// terminal output label.
func checkChain(t *testing.T, g *Graph) {
	t.Helper()

	available := map[string]bool{"[0:v]": true}
	for i := range g.Files {
		available["["+strconv.Itoa(i+1)+":v]"] = true
	}
	produced := map[string]bool{}

	for _, st := range g.Stages {
		for _, in := range st.Inputs {
			if !available[in] {
				t.Errorf("stage %q consumes unknown label %q", st.Expr, in)
			}
		}
		if produced[st.Output] {
			t.Errorf("label %q produced twice", st.Output)
		}
		produced[st.Output] = true
		available[st.Output] = true
	}

	if len(g.Stages) == 0 || g.Stages[len(g.Stages)-1].Output != OutputLabel {
		t.Errorf("graph does not terminate in %s", OutputLabel)
	}
}

func TestBuildSingleTextLayer(t *testing.T) {
	// One text layer at (10,10) on a square canvas: one drawtext stage
	// plus the terminal copy.
	layers := []Layer{{
		Kind: KindText, Text: "Hello World",
		X: 10, Y: 10,
		FontSize: 48, FontColor: "white", MaxLineLength: 30,
	}}
	g, err := testBuilder().Build(Canvas{Width: 1080, Height: 1080}, layers)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	checkChain(t, g)

	if len(g.Stages) != 2 {
		t.Fatalf("got %d stages, want 2", len(g.Stages))
	}
	draw := g.Stages[0]
	if !strings.HasPrefix(draw.Expr, "drawtext=") {
		t.Errorf("first stage = %q, want drawtext", draw.Expr)
	}
	if !strings.Contains(draw.Expr, "text='Hello World'") {
		t.Errorf("drawtext missing text: %q", draw.Expr)
	}
	if !strings.Contains(draw.Expr, "x=10:y=10") {
		t.Errorf("drawtext misplaced: %q", draw.Expr)
	}
	if g.Stages[1].Expr != "copy" || g.Stages[1].Output != OutputLabel {
		t.Errorf("terminal stage wrong: %+v", g.Stages[1])
	}
	if len(g.Files) != 0 {
		t.Errorf("text-only graph staged %d files", len(g.Files))
	}
}

func TestBuildImageThenCenteredText(t *testing.T) {
	// Image scaled to 200x200 at the origin, then a centered caption:
	// scale, overlay, per-line drawtext, copy.
	layers := []Layer{
		{Kind: KindImage, Data: pngBytes(t), Width: 200, Height: 200},
		{Kind: KindText, Text: "Caption", Align: AlignCenter, Y: 900,
			FontSize: 48, FontColor: "white", MaxLineLength: 30},
	}
	g, err := testBuilder().Build(Canvas{Width: 1080, Height: 1920}, layers)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	checkChain(t, g)

	if len(g.Files) != 1 {
		t.Fatalf("got %d staged files, want 1", len(g.Files))
	}
	if !strings.HasSuffix(g.Files[0].Name, ".png") {
		t.Errorf("staged file name = %q, want .png suffix", g.Files[0].Name)
	}

	if g.Stages[0].Expr != "scale=200:200" {
		t.Errorf("scale stage = %q", g.Stages[0].Expr)
	}
	if g.Stages[0].Inputs[0] != "[1:v]" {
		t.Errorf("scale input = %q, want [1:v]", g.Stages[0].Inputs[0])
	}
	if g.Stages[1].Expr != "overlay=0:0" {
		t.Errorf("overlay stage = %q", g.Stages[1].Expr)
	}
	if !strings.Contains(g.Stages[2].Expr, "x=(w-text_w)/2") {
		t.Errorf("centered drawtext = %q", g.Stages[2].Expr)
	}
	if !strings.Contains(g.Stages[2].Expr, "y=900") {
		t.Errorf("caption y offset = %q", g.Stages[2].Expr)
	}
}

func TestBuildCenteredMultiline(t *testing.T) {
	// Center alignment draws every wrapped line as its own stage with
	// advancing y offsets.
	layers := []Layer{{
		Kind: KindText, Text: "one two three four five six seven eight",
		Align: AlignCenter, Y: 100,
		FontSize: 40, FontColor: "white", MaxLineLength: 12,
	}}
	g, err := testBuilder().Build(Canvas{Width: 1080, Height: 1080}, layers)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	checkChain(t, g)

	lines := WrapText(layers[0].Text, 12)
	if len(g.Stages) != len(lines)+1 {
		t.Fatalf("got %d stages, want %d", len(g.Stages), len(lines)+1)
	}
	for j := range lines {
		if !strings.Contains(g.Stages[j].Expr, "y="+strconv.Itoa(LineOffsetY(100, j, 40))) {
			t.Errorf("line %d offset missing in %q", j, g.Stages[j].Expr)
		}
	}
}

func TestBuildLeftAlignedBlock(t *testing.T) {
	// Left alignment renders the wrapped text as a single block at the
	// fixed left margin, letting drawtext break lines natively.
	layers := []Layer{{
		Kind: KindText, Text: "alpha beta gamma delta epsilon zeta",
		Align: AlignLeft, Y: 50,
		FontSize: 30, FontColor: "red", MaxLineLength: 12,
	}}
	g, err := testBuilder().Build(Canvas{Width: 1080, Height: 1080}, layers)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	checkChain(t, g)

	if len(g.Stages) != 2 {
		t.Fatalf("got %d stages, want 2 (block + copy)", len(g.Stages))
	}
	if !strings.Contains(g.Stages[0].Expr, "x=10:") {
		t.Errorf("block not at left margin: %q", g.Stages[0].Expr)
	}
	if !strings.Contains(g.Stages[0].Expr, "\n") {
		t.Errorf("block should be newline-joined: %q", g.Stages[0].Expr)
	}
}

func TestBuildWhitespaceTextPreservesLabelContinuity(t *testing.T) {
	layers := []Layer{
		{Kind: KindImage, Data: pngBytes(t), Width: 100, Height: 100},
		{Kind: KindText, Text: "   ", FontSize: 48, FontColor: "white", MaxLineLength: 30},
		{Kind: KindText, Text: "after", FontSize: 48, FontColor: "white", MaxLineLength: 30},
	}
	g, err := testBuilder().Build(Canvas{Width: 1080, Height: 1080}, layers)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	checkChain(t, g)

	// scale, overlay, drawtext("after"), copy — nothing for the blank layer.
	if len(g.Stages) != 4 {
		t.Errorf("got %d stages, want 4", len(g.Stages))
	}
	if g.Stages[2].Inputs[0] != g.Stages[1].Output {
		t.Errorf("blank layer broke the chain: %q consumes %q", g.Stages[2].Expr, g.Stages[2].Inputs[0])
	}
}

func TestBuildScalePolicies(t *testing.T) {
	canvas := Canvas{Width: 1080, Height: 1920}
	tests := []struct {
		name string
		w, h int
		want string
	}{
		{"both dimensions ignore aspect", 300, 150, "scale=300:150"},
		{"width only preserves aspect", 300, 0, "scale=300:-2"},
		{"height only preserves aspect", 0, 400, "scale=-2:400"},
		{"neither fills canvas height", 0, 0, "scale=-2:1920"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layers := []Layer{{Kind: KindImage, Data: pngBytes(t), Width: tt.w, Height: tt.h}}
			g, err := testBuilder().Build(canvas, layers)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if g.Stages[0].Expr != tt.want {
				t.Errorf("scale = %q, want %q", g.Stages[0].Expr, tt.want)
			}
		})
	}
}

func TestBuildRejectsEmptyLayerList(t *testing.T) {
	_, err := testBuilder().Build(Canvas{Width: 1080, Height: 1080}, nil)
	if !errors.Is(err, ErrNoUsableLayers) {
		t.Errorf("error = %v, want ErrNoUsableLayers", err)
	}
}

func TestFilterComplexRendering(t *testing.T) {
	layers := []Layer{
		{Kind: KindImage, Data: pngBytes(t), Width: 100, Height: 100, X: 5, Y: 6},
		{Kind: KindText, Text: "hi", FontSize: 48, FontColor: "white", MaxLineLength: 30},
	}
	g, err := testBuilder().Build(Canvas{Width: 1080, Height: 1080}, layers)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	fc := g.FilterComplex()
	if !strings.HasPrefix(fc, "[1:v]scale=100:100[scl0];[0:v][scl0]overlay=5:6[ov0];") {
		t.Errorf("filter prefix wrong: %q", fc)
	}
	if !strings.HasSuffix(fc, "copy[vout]") {
		t.Errorf("filter suffix wrong: %q", fc)
	}
}

func TestDrawtextEscapesUserText(t *testing.T) {
	layers := []Layer{{
		Kind: KindText, Text: "it's 100%: \"fine\"",
		FontSize: 48, FontColor: "white", MaxLineLength: 40,
	}}
	g, err := testBuilder().Build(Canvas{Width: 1080, Height: 1080}, layers)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	expr := g.Stages[0].Expr
	if !strings.Contains(expr, `it\'s 100\%\: \"fine\"`) {
		t.Errorf("text not escaped: %q", expr)
	}
}

func TestDrawtextEscapesFontColor(t *testing.T) {
	// A colon in the color value must stay inside the quoted value; raw
	// passthrough would let callers append arbitrary drawtext options.
	layers := []Layer{{
		Kind: KindText, Text: "hi",
		FontSize: 48, FontColor: "white:textfile=/etc/passwd:text=", MaxLineLength: 30,
	}}
	g, err := testBuilder().Build(Canvas{Width: 1080, Height: 1080}, layers)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	expr := g.Stages[0].Expr
	if strings.Contains(expr, "fontcolor=white:textfile") {
		t.Errorf("color value not escaped: %q", expr)
	}
	if !strings.Contains(expr, `fontcolor='white\:textfile=/etc/passwd\:text='`) {
		t.Errorf("color not quoted and escaped: %q", expr)
	}
}
