package verify

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Page holds the extractable signals for one page of an artifact.
type Page struct {
	Text        string
	Annotations int
}

// Inspection is the inspector's view of one artifact.
type Inspection struct {
	Pages     []Page
	Encrypted bool
	Metadata  map[string]string
}

// Inspector opens an artifact and reports its extractable signals. An
// implementation must not mutate the input bytes.
type Inspector interface {
	Inspect(artifact []byte) (*Inspection, error)
}

// PDFInspector inspects PDF artifacts via pdfcpu.
type PDFInspector struct{}

// NewPDFInspector returns the pdfcpu-backed inspector.
func NewPDFInspector() *PDFInspector {
	return &PDFInspector{}
}

// Inspect parses the PDF and extracts per-page text and annotation counts.
// An artifact that is encrypted with an unknown password yields an
// Inspection with Encrypted set and no pages; page-level checks then report
// what was extractable.
func (*PDFInspector) Inspect(artifact []byte) (*Inspection, error) {
	conf := model.NewDefaultConfiguration()

	ctx, err := api.ReadContext(bytes.NewReader(artifact), conf)
	if err != nil {
		if isEncryptionErr(err) {
			return &Inspection{Encrypted: true}, nil
		}
		return nil, fmt.Errorf("parse pdf: %w", err)
	}

	insp := &Inspection{
		Encrypted: ctx.XRefTable.Encrypt != nil,
	}

	annots, err := api.Annotations(bytes.NewReader(artifact), nil, conf)
	if err != nil {
		annots = nil
	}

	for pageNr := 1; pageNr <= ctx.XRefTable.PageCount; pageNr++ {
		page := Page{}
		if reader, err := ctx.ExtractPageContent(pageNr); err == nil && reader != nil {
			page.Text = scrapeContentText(reader)
		}
		for _, byType := range annots[pageNr] {
			page.Annotations += len(byType)
		}
		insp.Pages = append(insp.Pages, page)
	}

	return insp, nil
}

// PageCount returns the artifact's page count, or an error when the
// document cannot be parsed. Callers treat failures as non-fatal.
func PageCount(artifact []byte) (int, error) {
	return api.PageCount(bytes.NewReader(artifact), nil)
}

func isEncryptionErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypt")
}

// scrapeContentText pulls string literals out of a decoded PDF content
// stream. Text-showing operators carry their payload in parenthesized
// literals, which is all the watermark and has-text checks need; fonts with
// exotic encodings simply yield no match, keeping inspection best-effort.
func scrapeContentText(r io.Reader) string {
	data, err := io.ReadAll(r)
	if err != nil {
		return ""
	}

	var b strings.Builder
	depth := 0
	escaped := false
	for _, c := range data {
		switch {
		case escaped:
			if depth > 0 {
				b.WriteByte(c)
			}
			escaped = false
		case c == '\\':
			escaped = true
		case c == '(':
			if depth > 0 {
				b.WriteByte(c)
			} else {
				b.WriteByte(' ')
			}
			depth++
		case c == ')':
			depth--
			if depth > 0 {
				b.WriteByte(c)
			}
			if depth < 0 {
				depth = 0
			}
		case depth > 0:
			b.WriteByte(c)
		}
	}
	return strings.TrimSpace(b.String())
}
