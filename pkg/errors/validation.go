package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateSelector validates a style table selector.
// A selector is either a bare tag key ("building") or an exact key.value
// match ("golf.bunker").
//
// The validation rules are intentionally conservative:
//   - No empty selectors
//   - No control characters or whitespace
//   - At most one dot, with non-empty key and value around it
//   - Maximum length of 128 characters
func ValidateSelector(sel string) error {
	if sel == "" {
		return New(ErrCodeInvalidStyle, "selector cannot be empty")
	}

	if len(sel) > 128 {
		return New(ErrCodeInvalidStyle, "selector too long (max 128 characters)")
	}

	for _, r := range sel {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidStyle, "selector %q contains invalid characters", sel)
		}
	}

	if n := strings.Count(sel, "."); n > 1 {
		return New(ErrCodeInvalidStyle, "selector %q has %d dots (at most one allowed)", sel, n)
	}
	if strings.HasPrefix(sel, ".") || strings.HasSuffix(sel, ".") {
		return New(ErrCodeInvalidStyle, "selector %q has an empty key or value", sel)
	}

	return nil
}

// hexColorRegex matches 3- and 6-digit hex colors.
var hexColorRegex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateColor validates a fill or stroke color value.
// Empty means unset and is allowed; otherwise the value must be "none" or a
// 3- or 6-digit hex color.
func ValidateColor(color string) error {
	if color == "" || color == "none" {
		return nil
	}

	if !hexColorRegex.MatchString(color) {
		return New(ErrCodeInvalidStyle, "invalid color %q (want #RGB, #RRGGBB, or \"none\")", color)
	}

	return nil
}

// ValidateLineCap validates a stroke-linecap value.
// Empty means unset and falls back to the renderer default.
func ValidateLineCap(cap string) error {
	switch cap {
	case "", "butt", "square":
		return nil
	}
	return New(ErrCodeInvalidStyle, "invalid stroke-linecap %q (want butt or square)", cap)
}
