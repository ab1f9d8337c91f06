package docgen

import (
	"fmt"
	"strings"

	"docpress/internal/services"
)

// DefaultTemplate is used when a job names no template.
const DefaultTemplate = "product-release"

// Template describes one built-in document layout.
type Template struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	Filename         string `json:"filename"`
	DefaultWatermark string `json:"default_watermark"`
}

var builtinTemplates = []Template{
	{
		Name:             "product-release",
		Description:      "General product release notes with features, fixes, and links",
		Filename:         "product-release.docx",
		DefaultWatermark: "INTERNAL",
	},
	{
		Name:             "security-advisory",
		Description:      "Security advisory emphasizing fixes and migration steps",
		Filename:         "security-advisory.docx",
		DefaultWatermark: "CONFIDENTIAL",
	},
	{
		Name:             "api-release",
		Description:      "API release notes emphasizing breaking changes",
		Filename:         "api-release.docx",
		DefaultWatermark: "DRAFT",
	},
}

// Templates returns the built-in template catalog.
func Templates() []Template {
	out := make([]Template, len(builtinTemplates))
	copy(out, builtinTemplates)
	return out
}

// LookupTemplate resolves a template by name. An empty name selects the
// default template; an unknown name is a validation error.
func LookupTemplate(name string) (Template, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultTemplate
	}
	for _, tmpl := range builtinTemplates {
		if tmpl.Name == name {
			return tmpl, nil
		}
	}
	known := make([]string, len(builtinTemplates))
	for i, tmpl := range builtinTemplates {
		known[i] = tmpl.Name
	}
	return Template{}, services.NewError(services.ErrValidation,
		"TEMPLATE_UNKNOWN",
		fmt.Sprintf("unknown template %q", name),
		fmt.Sprintf("Available templates: %s.", strings.Join(known, ", ")))
}
