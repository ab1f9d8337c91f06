package release

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"docpress/internal/services"
)

// Field length caps, matching the published input contract.
const (
	maxNameLen    = 200
	maxVersionLen = 50
	maxIDLen      = 50
	maxTextLen    = 2000
	maxSummaryLen = 5000
	maxURLLen     = 2000
	maxPathLen    = 500
	maxCaptionLen = 500
)

const defaultImageWidth = 80

// Parse validates raw JSON input and returns the typed Document. On any
// constraint violation it returns a services.ErrValidation error carrying
// the complete violation list; no partial document is returned.
func Parse(raw []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, services.NewError(services.ErrValidation,
			"VALIDATION_FAILED", "input is not valid JSON",
			"Submit a JSON object with product_name and version fields.").
			WithCause(err)
	}

	violations := doc.validate()
	if len(violations) > 0 {
		return nil, services.NewError(services.ErrValidation,
			"VALIDATION_FAILED",
			fmt.Sprintf("input validation failed: %s", strings.Join(violations, "; ")),
			"Check required fields: product_name (string), version (string).").
			WithDetail(violations...)
	}

	doc.applyDefaults()
	return &doc, nil
}

func (d *Document) validate() []string {
	var violations []string
	add := func(format string, args ...any) {
		violations = append(violations, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(d.ProductName) == "" {
		add("missing required field: 'product_name'")
	} else if len(d.ProductName) > maxNameLen {
		add("product_name exceeds %d characters", maxNameLen)
	}
	if strings.TrimSpace(d.Version) == "" {
		add("missing required field: 'version'")
	} else if len(d.Version) > maxVersionLen {
		add("version exceeds %d characters", maxVersionLen)
	}
	if len(d.Summary) > maxSummaryLen {
		add("summary exceeds %d characters", maxSummaryLen)
	}

	for i, f := range d.Features {
		if strings.TrimSpace(f.Title) == "" {
			add("features[%d]: title is required", i)
		}
		if strings.TrimSpace(f.Description) == "" {
			add("features[%d]: description is required", i)
		}
		if len(f.Title) > maxNameLen || len(f.Description) > maxTextLen {
			add("features[%d]: field exceeds length limit", i)
		}
	}
	for i, f := range d.Fixes {
		if strings.TrimSpace(f.ID) == "" {
			add("fixes[%d]: id is required", i)
		}
		if strings.TrimSpace(f.Title) == "" {
			add("fixes[%d]: title is required", i)
		}
		if len(f.ID) > maxIDLen || len(f.Title) > maxNameLen || len(f.Description) > maxTextLen {
			add("fixes[%d]: field exceeds length limit", i)
		}
	}
	for i, b := range d.BreakingChanges {
		if strings.TrimSpace(b.Title) == "" {
			add("breaking_changes[%d]: title is required", i)
		}
		if strings.TrimSpace(b.Description) == "" {
			add("breaking_changes[%d]: description is required", i)
		}
		if strings.TrimSpace(b.Migration) == "" {
			add("breaking_changes[%d]: migration note is required", i)
		}
	}
	for i, l := range d.Links {
		if strings.TrimSpace(l.Label) == "" {
			add("links[%d]: label is required", i)
		}
		if len(l.URL) > maxURLLen {
			add("links[%d]: url exceeds %d characters", i, maxURLLen)
		}
	}
	for i, img := range d.Images {
		if strings.TrimSpace(img.Path) == "" {
			add("images[%d]: path is required", i)
		}
		if len(img.Path) > maxPathLen || len(img.Caption) > maxCaptionLen {
			add("images[%d]: field exceeds length limit", i)
		}
		if img.WidthPercent != 0 && (img.WidthPercent < 10 || img.WidthPercent > 100) {
			add("images[%d]: width_percent must be between 10 and 100", i)
		}
		if img.Placement != "" && img.Placement != PlacementInline && img.Placement != PlacementFullWidth {
			add("images[%d]: placement must be 'inline' or 'full_width'", i)
		}
	}
	for i, att := range d.Attachments {
		if strings.TrimSpace(att.Label) == "" {
			add("attachments[%d]: label is required", i)
		}
		if strings.TrimSpace(att.Path) == "" {
			add("attachments[%d]: path is required", i)
		}
		if att.Type != "" && att.Type != AttachmentAppendix && att.Type != AttachmentEmbed {
			add("attachments[%d]: type must be 'appendix' or 'embed'", i)
		}
	}

	return violations
}

func (d *Document) applyDefaults() {
	if d.SchemaVersion == "" {
		d.SchemaVersion = "1.0"
	}
	if strings.TrimSpace(d.Summary) == "" {
		d.Summary = "None"
	}
	if strings.TrimSpace(d.ReleaseDate) == "" {
		d.ReleaseDate = time.Now().Format(time.DateOnly)
	}
	for i := range d.Images {
		if d.Images[i].WidthPercent == 0 {
			d.Images[i].WidthPercent = defaultImageWidth
		}
		if d.Images[i].Placement == "" {
			d.Images[i].Placement = PlacementInline
		}
	}
	for i := range d.Attachments {
		if d.Attachments[i].Type == "" {
			d.Attachments[i].Type = AttachmentAppendix
		}
	}
}
