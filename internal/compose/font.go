package compose

import (
	"os"
	"path/filepath"
	"runtime"
)

// FontRef identifies the font used by a drawtext stage: either a concrete
// font file path or a logical family name resolved by fontconfig.
type FontRef struct {
	// File is the path to a font file. Empty when Family is set.
	File string
	// Family is a logical font family name used when no file is available.
	Family string
}

// FontResolver maps a requested style name to a usable font reference.
type FontResolver interface {
	Resolve(style string) FontRef
}

// defaultFontFamily is the logical family used when an existence-checked
// lookup finds nothing on disk and no style name was requested.
const defaultFontFamily = "Sans"

// DefaultFontPath returns the stock font file for the host platform.
func DefaultFontPath() string {
	switch runtime.GOOS {
	case "darwin":
		return "/System/Library/Fonts/Supplemental/Arial.ttf"
	case "windows":
		return `C:\Windows\Fonts\arial.ttf`
	default:
		return "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"
	}
}

// DefaultFontsDir returns the per-platform directory searched for
// style-named font files.
func DefaultFontsDir() string {
	switch runtime.GOOS {
	case "darwin":
		return "/Library/Fonts"
	case "windows":
		return `C:\Windows\Fonts`
	default:
		return "/usr/share/fonts/truetype"
	}
}

// StyleResolver resolves fonts by convention: a requested style maps to
// <FontsDir>/<style>.ttf, and the absence of a style yields DefaultFont.
// It does not check that the file exists.
type StyleResolver struct {
	// FontsDir is the directory holding style-named font files.
	FontsDir string
	// DefaultFont is the font file used when no style is requested.
	DefaultFont string
}

// NewStyleResolver creates a StyleResolver, filling empty fields with the
// platform defaults.
func NewStyleResolver(fontsDir, defaultFont string) *StyleResolver {
	if fontsDir == "" {
		fontsDir = DefaultFontsDir()
	}
	if defaultFont == "" {
		defaultFont = DefaultFontPath()
	}
	return &StyleResolver{FontsDir: fontsDir, DefaultFont: defaultFont}
}

// Resolve maps a style name to a font file path.
func (r *StyleResolver) Resolve(style string) FontRef {
	if style == "" {
		return FontRef{File: r.DefaultFont}
	}
	return FontRef{File: filepath.Join(r.FontsDir, style+".ttf")}
}

// CheckedResolver resolves like StyleResolver but verifies the resolved
// file exists, falling back to a logical family name reference when it
// does not. The family falls back to the requested style name so the
// renderer can still match an installed face.
type CheckedResolver struct {
	inner *StyleResolver
}

// NewCheckedResolver wraps a StyleResolver with existence checking.
func NewCheckedResolver(inner *StyleResolver) *CheckedResolver {
	return &CheckedResolver{inner: inner}
}

// Resolve returns the conventional file path when it exists, otherwise a
// family-name reference.
func (r *CheckedResolver) Resolve(style string) FontRef {
	ref := r.inner.Resolve(style)
	if _, err := os.Stat(ref.File); err == nil {
		return ref
	}
	if style != "" {
		return FontRef{Family: style}
	}
	return FontRef{Family: defaultFontFamily}
}
