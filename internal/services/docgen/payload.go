package docgen

import "docpress/internal/release"

// payloadData maps the release document onto the field names the generation
// API's merge templates reference. The wire names predate this service and
// do not match the document schema, so the mapping is explicit.
func payloadData(doc *release.Document) map[string]any {
	features := make([]map[string]string, 0, len(doc.Features))
	for _, f := range doc.Features {
		features = append(features, map[string]string{
			"title":       f.Title,
			"description": f.Description,
		})
	}

	fixes := make([]map[string]string, 0, len(doc.Fixes))
	for _, f := range doc.Fixes {
		fixes = append(fixes, map[string]string{
			"id":       f.ID,
			"fixTitle": f.Title,
			"fixDesc":  f.Description,
		})
	}

	breaking := make([]map[string]string, 0, len(doc.BreakingChanges))
	for _, b := range doc.BreakingChanges {
		breaking = append(breaking, map[string]string{
			"change":  b.Title,
			"detail":  b.Description,
			"migrate": b.Migration,
		})
	}

	links := make([]map[string]string, 0, len(doc.Links))
	for _, l := range doc.Links {
		links = append(links, map[string]string{
			"label": l.Label,
			"url":   l.URL,
		})
	}

	return map[string]any{
		"productName":     doc.ProductName,
		"releaseVersion":  doc.Version,
		"releaseDate":     doc.ReleaseDate,
		"summary":         doc.Summary,
		"features":        features,
		"fixes":           fixes,
		"breakingChanges": breaking,
		"links":           links,
	}
}
