package compose

import "strings"

// filterEscaper escapes the metacharacters of ffmpeg's filter expression
// mini-language. Backslash, single quote, and colon are mandatory; percent
// and double quote are additionally escaped as the safer policy for
// drawtext values.
var filterEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`:`, `\:`,
	`%`, `\%`,
	`"`, `\"`,
)

// EscapeFilterValue sanitizes a user-supplied string for embedding as a
// value inside a filter_complex expression. The surrounding argument is
// always passed as its own argv element, so only the filter mini-language
// needs escaping here, never the shell.
func EscapeFilterValue(s string) string {
	return filterEscaper.Replace(s)
}
