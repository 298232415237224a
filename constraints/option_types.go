package constraints

import (
	"strconv"
	"strings"
	"time"

	"customer-option-service/models"
)

// Configuration keys read from a customer option's configuration.
const (
	ConfigMinLength   = "min.length"
	ConfigMaxLength   = "max.length"
	ConfigAllowedType = "allowed_types"
	ConfigMaxFileSize = "max.file_size"
	ConfigMinDate     = "min.date"
	ConfigMaxDate     = "max.date"
	ConfigMinNumber   = "min.number"
	ConfigMaxNumber   = "max.number"
	ConfigConditions  = "conditions"
)

// OptionType builds the constraint for one customer option type tag.
type OptionType interface {
	Tag() string
	Constraint(cfg Configuration) Constraint
}

type textType struct{}

func (textType) Tag() string { return models.OptionTypeText }

func (textType) Constraint(cfg Configuration) Constraint {
	return Length{Min: cfg.Int(ConfigMinLength), Max: cfg.Int(ConfigMaxLength)}
}

type fileType struct{}

func (fileType) Tag() string { return models.OptionTypeFile }

func (fileType) Constraint(cfg Configuration) Constraint {
	var mimeTypes []string
	for _, t := range strings.Split(cfg.String(ConfigAllowedType), ",") {
		if t = strings.TrimSpace(t); t != "" {
			mimeTypes = append(mimeTypes, t)
		}
	}
	return File{MaxSize: cfg.Size(ConfigMaxFileSize), MimeTypes: mimeTypes}
}

type dateType struct{ tag string }

func (d dateType) Tag() string { return d.tag }

func (dateType) Constraint(cfg Configuration) Constraint {
	return DateRange{Min: cfg.Date(ConfigMinDate), Max: cfg.Date(ConfigMaxDate)}
}

type numberType struct{}

func (numberType) Tag() string { return models.OptionTypeNumber }

func (numberType) Constraint(cfg Configuration) Constraint {
	return NumberRange{Min: cfg.Float(ConfigMinNumber), Max: cfg.Float(ConfigMaxNumber)}
}

var optionTypes = register(
	textType{},
	fileType{},
	dateType{tag: models.OptionTypeDate},
	dateType{tag: models.OptionTypeDateTime},
	numberType{},
)

func register(types ...OptionType) map[string]OptionType {
	registry := make(map[string]OptionType, len(types))
	for _, t := range types {
		registry[t.Tag()] = t
	}
	return registry
}

// FromConfiguration builds the constraint for an option type from its
// configuration. Types without constraints (SELECT, BOOLEAN, unknown tags)
// return false.
func FromConfiguration(tag string, cfg map[string]any) (Constraint, bool) {
	t, ok := optionTypes[strings.ToUpper(tag)]
	if !ok {
		return nil, false
	}
	return t.Constraint(Configuration(cfg)), true
}

// ForOption returns every constraint that applies to a customer option.
func ForOption(option *models.CustomerOption) []Constraint {
	cfg := Configuration(option.Configuration)

	var list []Constraint
	if option.Required {
		list = append(list, Required())
	}
	if c, ok := FromConfiguration(option.Type, cfg); ok {
		list = append(list, c)
	}

	if conditions := cfg.Conditions(); len(conditions) > 0 && len(list) > 0 {
		return []Constraint{Conditional(conditions, list)}
	}
	return list
}

// Validate runs all constraints of an option against a submitted value.
func Validate(option *models.CustomerOption, value any, form map[string]any) []string {
	var violations []string
	for _, c := range ForOption(option) {
		violations = append(violations, c.Validate(value, form)...)
	}
	return violations
}

// Configuration is the free-form settings map of a customer option. An entry
// is either a plain value or an object with a "value" key.
type Configuration map[string]any

func (c Configuration) value(key string) any {
	v, ok := c[key]
	if !ok {
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		if inner, ok := m["value"]; ok {
			return inner
		}
	}
	return v
}

func (c Configuration) String(key string) string {
	switch v := c.value(key).(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ",")
	}
	return ""
}

func (c Configuration) Float(key string) *float64 {
	f, ok := toFloat(c.value(key))
	if !ok {
		return nil
	}
	return &f
}

func (c Configuration) Int(key string) *int {
	f := c.Float(key)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}

// Date reads a date bound, given as a string or as {"date": "..."}.
func (c Configuration) Date(key string) *time.Time {
	v := c.value(key)
	if m, ok := v.(map[string]any); ok {
		v = m["date"]
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil
	}
	return &t
}

var sizeUnits = map[string]int64{
	"k":  1000,
	"M":  1000 * 1000,
	"Ki": 1 << 10,
	"Mi": 1 << 20,
}

// Size reads a byte size such as 2048, "500k", "2M" or "1Mi". Invalid sizes are 0.
func (c Configuration) Size(key string) int64 {
	switch v := c.value(key).(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case string:
		v = strings.TrimSpace(v)
		for _, suffix := range []string{"Ki", "Mi", "k", "M"} {
			if num, ok := strings.CutSuffix(v, suffix); ok {
				n, err := strconv.ParseInt(num, 10, 64)
				if err != nil {
					return 0
				}
				return n * sizeUnits[suffix]
			}
		}
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

// Conditions reads the optional condition list, ignoring malformed entries.
func (c Configuration) Conditions() []Condition {
	raw, ok := c[ConfigConditions].([]any)
	if !ok {
		return nil
	}
	conditions := make([]Condition, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		code, _ := m["option"].(string)
		comparator, _ := m["comparator"].(string)
		if code == "" || comparator == "" {
			continue
		}
		conditions = append(conditions, Condition{OptionCode: code, Comparator: comparator, Value: m["value"]})
	}
	return conditions
}
