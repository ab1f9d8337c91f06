package verify

import (
	"reflect"
	"strings"
	"testing"
)

// fakeInspector returns canned inspections keyed by the artifact's first
// byte, letting tests model distinct before/after artifacts.
type fakeInspector struct {
	byKey map[byte]*Inspection
	err   error
}

func (f *fakeInspector) Inspect(artifact []byte) (*Inspection, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(artifact) == 0 {
		return &Inspection{}, nil
	}
	if insp, ok := f.byKey[artifact[0]]; ok {
		return insp, nil
	}
	return &Inspection{}, nil
}

func singleInspection(insp *Inspection) *fakeInspector {
	return &fakeInspector{byKey: map[byte]*Inspection{'a': insp}}
}

func watermarkedPages(n int, text string) []Page {
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = Page{Text: text}
	}
	return pages
}

func TestVerifyAllChecksPass(t *testing.T) {
	engine := NewEngine(singleInspection(&Inspection{
		Pages:    watermarkedPages(2, "Release Notes INTERNAL"),
		Metadata: map[string]string{"producer": "docpress", "title": ""},
	}))

	report := engine.Verify([]byte("a-artifact"), Expectations{WatermarkText: "internal"})
	if !report.Passed || report.ChecksPassed != 7 || report.ChecksTotal != 7 {
		t.Fatalf("report = %+v", report)
	}
	if report.PageCount != 2 || !report.WatermarkOnAllPages || !report.FlatteningSignals {
		t.Fatalf("report = %+v", report)
	}
	if _, ok := report.Metadata["title"]; ok {
		t.Fatal("empty metadata fields must be dropped")
	}
	if report.ContentHash == "" || report.FileSize != len("a-artifact") {
		t.Fatalf("size/hash missing: %+v", report)
	}
}

func TestVerifyWatermarkMissingOnOnePage(t *testing.T) {
	engine := NewEngine(singleInspection(&Inspection{
		Pages: []Page{{Text: "INTERNAL intro"}, {Text: "plain page"}},
	}))

	report := engine.Verify([]byte("a"), Expectations{WatermarkText: "INTERNAL"})
	if !report.WatermarkDetected {
		t.Fatal("watermark should be detected on at least one page")
	}
	if report.WatermarkOnAllPages {
		t.Fatal("watermark must not count as on all pages")
	}
	if report.Passed {
		t.Fatal("report must fail overall")
	}
	if report.ChecksPassed != 6 {
		t.Fatalf("checks passed = %d, want 6", report.ChecksPassed)
	}
}

func TestVerifyEmptyWatermarkPassesTrivially(t *testing.T) {
	engine := NewEngine(singleInspection(&Inspection{
		Pages: []Page{{Text: "anything"}},
	}))
	report := engine.Verify([]byte("a"), Expectations{})
	if !report.WatermarkDetected || !report.WatermarkOnAllPages {
		t.Fatalf("empty watermark must pass checks 4 and 5: %+v", report)
	}
}

func TestVerifyEncryptionMismatch(t *testing.T) {
	engine := NewEngine(singleInspection(&Inspection{
		Pages:     []Page{{Text: "text"}},
		Encrypted: false,
	}))
	report := engine.Verify([]byte("a"), Expectations{ShouldBeEncrypted: true})
	if report.Passed {
		t.Fatal("encryption mismatch must fail")
	}
	if report.IsEncrypted {
		t.Fatal("is_encrypted must reflect the artifact, not the expectation")
	}
}

func TestVerifyExpectedPages(t *testing.T) {
	engine := NewEngine(singleInspection(&Inspection{Pages: watermarkedPages(3, "x")}))
	if report := engine.Verify([]byte("a"), Expectations{ExpectedPages: 3}); !report.Passed {
		t.Fatalf("matching page count must pass: %+v", report)
	}
	if report := engine.Verify([]byte("a"), Expectations{ExpectedPages: 2}); report.Passed {
		t.Fatal("page count mismatch must fail")
	}
}

func TestVerifyResidualAnnotationsFail(t *testing.T) {
	engine := NewEngine(singleInspection(&Inspection{
		Pages: []Page{{Text: "text", Annotations: 2}},
	}))
	report := engine.Verify([]byte("a"), Expectations{})
	if report.FlatteningSignals {
		t.Fatal("annotations present must clear the flattening signal")
	}
	if report.Passed {
		t.Fatal("residual annotations must fail verification")
	}
}

func TestVerifyVacuousWithoutInspector(t *testing.T) {
	report := NewEngine(nil).Verify([]byte("bytes"), Expectations{WatermarkText: "INTERNAL"})
	if !report.Passed || report.ChecksTotal != 0 {
		t.Fatalf("vacuous report expected: %+v", report)
	}
	if report.FileSize != 5 || report.ContentHash == "" {
		t.Fatalf("size/hash must still be populated: %+v", report)
	}
}

func TestVerifyDeterministic(t *testing.T) {
	engine := NewEngine(singleInspection(&Inspection{Pages: watermarkedPages(2, "INTERNAL")}))
	exp := Expectations{WatermarkText: "INTERNAL"}
	first := engine.Verify([]byte("a"), exp)
	second := engine.Verify([]byte("a"), exp)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("verify not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestDiffFlattenedSignal(t *testing.T) {
	inspector := &fakeInspector{byKey: map[byte]*Inspection{
		'b': {Pages: []Page{{Text: "draft", Annotations: 3}}},
		'a': {Pages: []Page{{Text: "final INTERNAL"}}},
	}}
	engine := NewEngine(inspector)

	summary := engine.Diff([]byte("before"), []byte("after"), "INTERNAL", true)
	if !summary.Flattened {
		t.Fatal("annotations removed must report flattened")
	}
	if !summary.WatermarkApplied {
		t.Fatal("watermark must be detected in after artifact")
	}
	if !summary.PasswordProtected {
		t.Fatal("password flag must pass through")
	}
}

func TestDiffIdenticalArtifacts(t *testing.T) {
	inspector := singleInspection(&Inspection{Pages: []Page{{Text: "same"}}})
	engine := NewEngine(inspector)

	summary := engine.Diff([]byte("a"), []byte("a"), "", false)
	if summary.SizeChangeBytes != 0 {
		t.Fatalf("size change = %d, want 0", summary.SizeChangeBytes)
	}
	if summary.Flattened {
		t.Fatal("zero annotations on both sides must not report flattened")
	}
}

func TestDiffSizeChange(t *testing.T) {
	engine := NewEngine(nil)
	summary := engine.Diff(make([]byte, 100), make([]byte, 250), "", false)
	if summary.SizeChangeBytes != 150 {
		t.Fatalf("size change = %d, want 150", summary.SizeChangeBytes)
	}
}

func TestScrapeContentText(t *testing.T) {
	stream := "BT /F1 12 Tf 72 720 Td (Hello \\(World\\)) Tj ET (INTERNAL) Tj"
	got := scrapeContentText(strings.NewReader(stream))
	for _, want := range []string{"Hello (World)", "INTERNAL"} {
		if !strings.Contains(got, want) {
			t.Fatalf("scraped %q, want it to contain %q", got, want)
		}
	}
}
