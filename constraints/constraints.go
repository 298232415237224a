package constraints

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Constraint checks one submitted customer option value. form holds the other
// submitted option values keyed by option code, for constraints that depend on them.
type Constraint interface {
	Validate(value any, form map[string]any) []string
}

// Length limits the number of characters of a text value.
type Length struct {
	Min *int
	Max *int
}

func (c Length) Validate(value any, _ map[string]any) []string {
	if isBlank(value) {
		return nil
	}
	n := utf8.RuneCountInString(fmt.Sprint(value))
	var violations []string
	if c.Min != nil && n < *c.Min {
		violations = append(violations, fmt.Sprintf("This value is too short. It should have %d characters or more.", *c.Min))
	}
	if c.Max != nil && n > *c.Max {
		violations = append(violations, fmt.Sprintf("This value is too long. It should have %d characters or less.", *c.Max))
	}
	return violations
}

// File limits the size and mime type of an uploaded file. The value is a map
// with "size" (bytes) and "mime_type".
type File struct {
	MaxSize   int64
	MimeTypes []string
}

func (c File) Validate(value any, _ map[string]any) []string {
	if isBlank(value) {
		return nil
	}
	file, ok := value.(map[string]any)
	if !ok {
		return []string{"This value is not a valid file."}
	}

	var violations []string
	if c.MaxSize > 0 {
		if size, ok := toFloat(file["size"]); ok && int64(size) > c.MaxSize {
			violations = append(violations, fmt.Sprintf("The file is too large. Allowed maximum size is %d bytes.", c.MaxSize))
		}
	}
	if len(c.MimeTypes) > 0 {
		mime, _ := file["mime_type"].(string)
		if !mimeAllowed(mime, c.MimeTypes) {
			violations = append(violations, fmt.Sprintf("The mime type of the file is invalid (%q). Allowed mime types are %s.", mime, strings.Join(c.MimeTypes, ", ")))
		}
	}
	return violations
}

// mimeAllowed supports wildcards such as "image/*".
func mimeAllowed(mime string, allowed []string) bool {
	for _, a := range allowed {
		if a == mime {
			return true
		}
		if prefix, ok := strings.CutSuffix(a, "/*"); ok && strings.HasPrefix(mime, prefix+"/") {
			return true
		}
	}
	return false
}

// DateRange bounds a date or datetime value, both ends inclusive.
type DateRange struct {
	Min *time.Time
	Max *time.Time
}

func (c DateRange) Validate(value any, _ map[string]any) []string {
	if isBlank(value) {
		return nil
	}
	t, err := ParseDate(fmt.Sprint(value))
	if err != nil {
		return []string{"This value is not a valid date."}
	}
	var violations []string
	if c.Min != nil && t.Before(*c.Min) {
		violations = append(violations, fmt.Sprintf("This value should be %s or more.", c.Min.Format(time.RFC3339)))
	}
	if c.Max != nil && t.After(*c.Max) {
		violations = append(violations, fmt.Sprintf("This value should be %s or less.", c.Max.Format(time.RFC3339)))
	}
	return violations
}

// NumberRange bounds a numeric value, both ends inclusive.
type NumberRange struct {
	Min *float64
	Max *float64
}

func (c NumberRange) Validate(value any, _ map[string]any) []string {
	if isBlank(value) {
		return nil
	}
	n, ok := toFloat(value)
	if !ok {
		return []string{"This value should be a valid number."}
	}
	var violations []string
	if c.Min != nil && n < *c.Min {
		violations = append(violations, fmt.Sprintf("This value should be %s or more.", formatFloat(*c.Min)))
	}
	if c.Max != nil && n > *c.Max {
		violations = append(violations, fmt.Sprintf("This value should be %s or less.", formatFloat(*c.Max)))
	}
	return violations
}

// NotBlank rejects missing and empty values.
type NotBlank struct{}

func (NotBlank) Validate(value any, _ map[string]any) []string {
	if isBlank(value) {
		return []string{"This value should not be blank."}
	}
	return nil
}

// Required returns the constraint applied to options marked as required.
func Required() Constraint {
	return NotBlank{}
}

func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04", "2006-01-02"}

// ParseDate accepts RFC 3339 timestamps, "2006-01-02 15:04:05" and plain dates.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
