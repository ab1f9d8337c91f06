package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Expectations declare what the final artifact should look like.
type Expectations struct {
	// WatermarkText, when non-empty, must be found (case-insensitive) on
	// every page. When empty the watermark checks pass trivially.
	WatermarkText string
	// ShouldBeEncrypted is compared exactly against the artifact's
	// encryption flag.
	ShouldBeEncrypted bool
	// ExpectedPages, when positive, must equal the actual page count.
	ExpectedPages int
}

// Report is the outcome of verifying one artifact. FileSize and ContentHash
// are always populated regardless of check outcomes.
type Report struct {
	PageCount           int               `json:"page_count"`
	HasText             bool              `json:"has_text"`
	WatermarkDetected   bool              `json:"watermark_detected"`
	WatermarkOnAllPages bool              `json:"watermark_on_all_pages"`
	IsEncrypted         bool              `json:"is_encrypted"`
	FlatteningSignals   bool              `json:"flattening_signals"`
	FileSize            int               `json:"file_size"`
	ContentHash         string            `json:"content_hash"`
	Metadata            map[string]string `json:"metadata,omitempty"`
	ChecksPassed        int               `json:"checks_passed"`
	ChecksTotal         int               `json:"checks_total"`
	Passed              bool              `json:"passed"`
}

// Summary compares a base artifact against its post-processed version.
type Summary struct {
	WatermarkApplied  bool  `json:"watermark_applied"`
	Flattened         bool  `json:"flattened"`
	PasswordProtected bool  `json:"password_protected"`
	SizeChangeBytes   int64 `json:"size_change_bytes"`
}

// Engine verifies artifacts through an injected Inspector. Both Verify and
// Diff are pure functions of their inputs.
type Engine struct {
	inspector Inspector
}

// NewEngine constructs an Engine. A nil inspector makes verification
// vacuous: reports carry size and hash but zero checks.
func NewEngine(inspector Inspector) *Engine {
	return &Engine{inspector: inspector}
}

// Verify runs the seven checks against the artifact and expectations.
//
//  1. artifact opens and parses with at least one page
//  2. page count equals the expectation, when one was supplied
//  3. at least one page yields non-empty text
//  4. expected watermark text found on at least one page
//  5. expected watermark text found on every page
//  6. encryption flag equals the expectation exactly
//  7. no page retains interactive annotations
func (e *Engine) Verify(artifact []byte, exp Expectations) Report {
	report := Report{
		FileSize:    len(artifact),
		ContentHash: hashBytes(artifact),
	}
	if e.inspector == nil {
		report.Passed = true
		return report
	}

	insp, err := e.inspector.Inspect(artifact)
	if err != nil || insp == nil {
		insp = &Inspection{}
	}

	report.PageCount = len(insp.Pages)
	report.IsEncrypted = insp.Encrypted
	if len(insp.Metadata) > 0 {
		report.Metadata = make(map[string]string, len(insp.Metadata))
		for k, v := range insp.Metadata {
			if v != "" {
				report.Metadata[k] = v
			}
		}
	}

	hasText := false
	annotated := false
	for _, page := range insp.Pages {
		if strings.TrimSpace(page.Text) != "" {
			hasText = true
		}
		if page.Annotations > 0 {
			annotated = true
		}
	}
	report.HasText = hasText
	report.FlatteningSignals = !annotated

	wmDetected, wmAllPages := watermarkPresence(insp.Pages, exp.WatermarkText)
	report.WatermarkDetected = wmDetected
	report.WatermarkOnAllPages = wmAllPages

	checks := []bool{
		len(insp.Pages) > 0,
		exp.ExpectedPages <= 0 || len(insp.Pages) == exp.ExpectedPages,
		hasText,
		wmDetected,
		wmAllPages,
		insp.Encrypted == exp.ShouldBeEncrypted,
		!annotated,
	}
	for _, ok := range checks {
		if ok {
			report.ChecksPassed++
		}
	}
	report.ChecksTotal = len(checks)
	report.Passed = report.ChecksPassed == report.ChecksTotal
	return report
}

// Diff compares the base artifact against the post-processed one. The
// flattened signal is deliberately literal: annotations were present before
// and are absent after. Password application is passed through, not
// independently verified.
func (e *Engine) Diff(before, after []byte, watermarkText string, passwordApplied bool) Summary {
	summary := Summary{
		PasswordProtected: passwordApplied,
		SizeChangeBytes:   int64(len(after)) - int64(len(before)),
	}
	if e.inspector == nil {
		return summary
	}

	beforeInsp, err := e.inspector.Inspect(before)
	if err != nil || beforeInsp == nil {
		beforeInsp = &Inspection{}
	}
	afterInsp, err := e.inspector.Inspect(after)
	if err != nil || afterInsp == nil {
		afterInsp = &Inspection{}
	}

	if watermarkText != "" {
		needle := strings.ToUpper(watermarkText)
		for _, page := range afterInsp.Pages {
			if strings.Contains(strings.ToUpper(page.Text), needle) {
				summary.WatermarkApplied = true
				break
			}
		}
	}

	beforeAnnots := totalAnnotations(beforeInsp.Pages)
	afterAnnots := totalAnnotations(afterInsp.Pages)
	summary.Flattened = beforeAnnots > 0 && afterAnnots == 0

	return summary
}

func watermarkPresence(pages []Page, watermark string) (detected, onAllPages bool) {
	if watermark == "" {
		return true, true
	}
	needle := strings.ToUpper(watermark)
	onAllPages = len(pages) > 0
	for _, page := range pages {
		if strings.Contains(strings.ToUpper(page.Text), needle) {
			detected = true
		} else {
			onAllPages = false
		}
	}
	return detected, onAllPages
}

func totalAnnotations(pages []Page) int {
	total := 0
	for _, page := range pages {
		total += page.Annotations
	}
	return total
}

func hashBytes(b []byte) string {
	digest := sha256.Sum256(b)
	return hex.EncodeToString(digest[:])
}
