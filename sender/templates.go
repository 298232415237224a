package sender

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type templateConfig struct {
	tmplFile string
	subject  string
}

var templateConfigs = map[string]templateConfig{
	TemplateFailedCSVPriceImport: {
		tmplFile: "templates/failed_csv_price_import.html",
		subject:  "Customer option price import finished with errors",
	},
	TemplateFailedPriceByExampleImport: {
		tmplFile: "templates/failed_price_by_example_import.html",
		subject:  "Customer option price import by example finished with errors",
	},
	TemplateImportErrors: {
		tmplFile: "templates/import_errors.html",
		subject:  "Import errors",
	},
}

type renderedTemplate struct {
	tmpl    *template.Template
	subject string
}

// Templates holds the parsed mail templates keyed by template code.
type Templates struct {
	byCode map[string]renderedTemplate
}

func LoadTemplates() (*Templates, error) {
	t := &Templates{byCode: make(map[string]renderedTemplate, len(templateConfigs))}
	for code, cfg := range templateConfigs {
		tmpl, err := template.ParseFS(templateFS, cfg.tmplFile)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template for %s: %w", code, err)
		}
		t.byCode[code] = renderedTemplate{tmpl: tmpl, subject: cfg.subject}
	}
	return t, nil
}

// Alias makes code render the same template as an already loaded one.
func (t *Templates) Alias(code, existing string) error {
	if code == existing {
		return nil
	}
	rt, ok := t.byCode[existing]
	if !ok {
		return fmt.Errorf("unknown template code: %s", existing)
	}
	t.byCode[code] = rt
	return nil
}

// Render returns the subject and HTML body for a template code.
func (t *Templates) Render(code string, data map[string]any) (string, []byte, error) {
	rt, ok := t.byCode[code]
	if !ok {
		return "", nil, fmt.Errorf("unsupported template code: %s", code)
	}
	var buf bytes.Buffer
	if err := rt.tmpl.Execute(&buf, data); err != nil {
		return "", nil, fmt.Errorf("template render failed: %w", err)
	}
	return rt.subject, buf.Bytes(), nil
}
