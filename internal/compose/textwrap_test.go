package compose

import (
	"strings"
	"testing"
)

func TestWrapText(t *testing.T) {
	t.Run("packs words greedily", func(t *testing.T) {
		lines := WrapText("the quick brown fox jumps over the lazy dog", 15)
		for _, line := range lines {
			if len(line) > 15 {
				t.Errorf("line %q exceeds max length", line)
			}
		}
		if got := strings.Join(lines, " "); got != "the quick brown fox jumps over the lazy dog" {
			t.Errorf("wrap lost content: %q", got)
		}
	})

	t.Run("single long word stays unsplit", func(t *testing.T) {
		lines := WrapText("short incomprehensibilities end", 10)
		found := false
		for _, line := range lines {
			if line == "incomprehensibilities" {
				found = true
			}
		}
		if !found {
			t.Errorf("long word was split: %v", lines)
		}
	})

	t.Run("whitespace only produces single empty line", func(t *testing.T) {
		lines := WrapText("   \t\n ", 30)
		if len(lines) != 1 || lines[0] != "" {
			t.Errorf("got %v, want one empty line", lines)
		}
	})

	t.Run("line that fits stays whole", func(t *testing.T) {
		lines := WrapText("Hello World", 30)
		if len(lines) != 1 || lines[0] != "Hello World" {
			t.Errorf("got %v, want single line", lines)
		}
	})

	t.Run("budget counts runes, not bytes", func(t *testing.T) {
		// Seven runes, thirteen bytes: a byte budget would split this.
		lines := WrapText("ééé ééé", 7)
		if len(lines) != 1 || lines[0] != "ééé ééé" {
			t.Errorf("got %v, want single line", lines)
		}
	})

	t.Run("rewrap is idempotent", func(t *testing.T) {
		first := WrapText("a b c d e f g h i j k l m n o p", 7)
		second := WrapText(strings.Join(first, "\n"), 7)
		if len(first) != len(second) {
			t.Fatalf("line count changed: %d vs %d", len(first), len(second))
		}
		for i := range first {
			if first[i] != second[i] {
				t.Errorf("line %d changed: %q vs %q", i, first[i], second[i])
			}
		}
	})
}

func TestLineOffsetY(t *testing.T) {
	if got := LineOffsetY(100, 0, 48); got != 100 {
		t.Errorf("first line offset = %d, want 100", got)
	}
	// round(48 * 1.2) = 58
	if got := LineOffsetY(100, 1, 48); got != 158 {
		t.Errorf("second line offset = %d, want 158", got)
	}
	if got := LineOffsetY(0, 3, 20); got != 72 {
		t.Errorf("offset = %d, want 72", got)
	}
}

func TestXExpression(t *testing.T) {
	tests := []struct {
		name  string
		align Align
		x     int
		want  string
	}{
		{"center uses render-time width", AlignCenter, 50, "(w-text_w)/2"},
		{"right flush against edge", AlignRight, 50, "w-text_w-10"},
		{"left pinned to margin", AlignLeft, 50, "10"},
		{"explicit offset", AlignNone, 42, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := xExpression(tt.align, tt.x); got != tt.want {
				t.Errorf("xExpression(%q, %d) = %q, want %q", tt.align, tt.x, got, tt.want)
			}
		})
	}
}
