package textutil

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics decomposes accented characters and drops the combining
// marks, so "Café" folds to "Cafe" before the ASCII filter runs.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SanitizeProduct converts a product identity into a filename-safe token:
// lowercase, spaces become hyphens, and every character outside [a-z0-9-_]
// is stripped.
func SanitizeProduct(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if folded, _, err := transform.String(foldDiacritics, name); err == nil {
		name = folded
	}
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "-")

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ReleaseFilename derives the deterministic output filename for a release
// artifact from the product identity and version.
func ReleaseFilename(product, version string) string {
	return fmt.Sprintf("%s-v%s-release-notes.pdf", SanitizeProduct(product), version)
}
