package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"docpress/internal/assets"
	"docpress/internal/job"
	"docpress/internal/services"
	"docpress/internal/services/docgen"
	"docpress/internal/verify"
)

// stubGenerator returns fixed bytes and records invocations.
type stubGenerator struct {
	name  string
	pdf   []byte
	calls int
	err   error
}

func (s *stubGenerator) Name() string { return s.name }

func (s *stubGenerator) Generate(_ context.Context, req docgen.Request) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.pdf, nil
}

// stubPost is a deterministic post-processing collaborator that records the
// order of applied transforms.
type stubPost struct {
	calls         []string
	watermarkText string
	final         []byte
	err           error
}

func (s *stubPost) Upload(_ context.Context, pdf []byte, filename string) (string, error) {
	s.calls = append(s.calls, "upload")
	return "doc-base", s.err
}

func (s *stubPost) Watermark(_ context.Context, docID, text string) (string, error) {
	s.calls = append(s.calls, "watermark")
	s.watermarkText = text
	return "doc-wm", s.err
}

func (s *stubPost) Flatten(_ context.Context, docID string) (string, error) {
	s.calls = append(s.calls, "flatten")
	return "doc-flat", s.err
}

func (s *stubPost) Protect(_ context.Context, docID, password string) (string, error) {
	s.calls = append(s.calls, "protect")
	return "doc-prot", s.err
}

func (s *stubPost) Download(_ context.Context, docID string) ([]byte, error) {
	s.calls = append(s.calls, "download")
	return s.final, s.err
}

// stubVerifier reflects expectations back into the report so tests can
// assert what the orchestrator asked for.
type stubVerifier struct{}

func (stubVerifier) Verify(artifact []byte, exp verify.Expectations) verify.Report {
	digest := sha256.Sum256(artifact)
	return verify.Report{
		PageCount:    1,
		HasText:      true,
		IsEncrypted:  exp.ShouldBeEncrypted,
		FileSize:     len(artifact),
		ContentHash:  hex.EncodeToString(digest[:]),
		ChecksPassed: 7,
		ChecksTotal:  7,
		Passed:       true,
	}
}

func (stubVerifier) Diff(before, after []byte, watermarkText string, passwordApplied bool) verify.Summary {
	return verify.Summary{
		WatermarkApplied:  watermarkText != "",
		PasswordProtected: passwordApplied,
		SizeChangeBytes:   int64(len(after)) - int64(len(before)),
	}
}

func testDeps(gen *stubGenerator, post *stubPost) Deps {
	return Deps{
		Registry:  docgen.NewRegistry(gen),
		Post:      post,
		Resolver:  assets.NewResolver(nil),
		Verifier:  stubVerifier{},
		PageCount: func([]byte) (int, error) { return 1, nil },
	}
}

func minimalInput() []byte {
	return []byte(`{"product_name": "Acme", "version": "1.0.0"}`)
}

func TestRunMinimalDocumentDelivers(t *testing.T) {
	gen := &stubGenerator{name: "docgen", pdf: []byte("base")}
	post := &stubPost{final: []byte("final artifact bytes")}
	orch := New(testDeps(gen, post))

	j, err := orch.Run(context.Background(), minimalInput(), job.Options{Verify: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if j.State != job.StateDelivered {
		t.Fatalf("state = %s", j.State)
	}
	if j.Artifact.Filename != "acme-v1.0.0-release-notes.pdf" {
		t.Fatalf("filename = %q", j.Artifact.Filename)
	}

	digest := sha256.Sum256(post.final)
	if j.Artifact.ContentHash != hex.EncodeToString(digest[:]) {
		t.Fatal("artifact hash must equal sha256 of delivered bytes")
	}
	if post.watermarkText != "INTERNAL" {
		t.Fatalf("watermark = %q, want template default INTERNAL", post.watermarkText)
	}
	if j.EngineUsed != "docgen" {
		t.Fatalf("engine = %q", j.EngineUsed)
	}
	if j.Verification == nil || !j.Verification.Passed {
		t.Fatalf("verification = %+v", j.Verification)
	}
}

func TestRunTransformOrdering(t *testing.T) {
	gen := &stubGenerator{name: "docgen", pdf: []byte("base")}
	post := &stubPost{final: []byte("final")}
	orch := New(testDeps(gen, post))

	j, err := orch.Run(context.Background(), minimalInput(), job.Options{Password: "secret"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"upload", "watermark", "flatten", "protect", "download"}
	if len(post.calls) != len(want) {
		t.Fatalf("calls = %v", post.calls)
	}
	for i, call := range want {
		if post.calls[i] != call {
			t.Fatalf("calls = %v, want %v", post.calls, want)
		}
	}
	if j.BeforeDocID != "doc-base" || j.AfterDocID != "doc-prot" {
		t.Fatalf("handles = %q/%q", j.BeforeDocID, j.AfterDocID)
	}
}

func TestRunInvalidInputAbortsBeforeCollaborators(t *testing.T) {
	gen := &stubGenerator{name: "docgen", pdf: []byte("base")}
	post := &stubPost{final: []byte("final")}
	orch := New(testDeps(gen, post))

	j, err := orch.Run(context.Background(), []byte(`{"product_name": "Acme"}`), job.Options{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want validation marker", err)
	}
	if j.State != job.StateFailed {
		t.Fatalf("state = %s", j.State)
	}
	if gen.calls != 0 || len(post.calls) != 0 {
		t.Fatal("collaborators must not be invoked on invalid input")
	}
	if len(j.Steps) != 1 || j.Steps[0].Step != "validate" || j.Steps[0].Status != job.StepFailed {
		t.Fatalf("steps = %+v", j.Steps)
	}
}

func TestRunPathTraversalAbortsAtAssetPhase(t *testing.T) {
	gen := &stubGenerator{name: "docgen", pdf: []byte("base")}
	post := &stubPost{final: []byte("final")}
	orch := New(testDeps(gen, post))

	input := []byte(`{
		"product_name": "Acme",
		"version": "1.0.0",
		"images": [{"path": "../../etc/passwd"}]
	}`)
	j, err := orch.Run(context.Background(), input, job.Options{AssetDir: t.TempDir()})
	if !errors.Is(err, services.ErrAssetSecurity) {
		t.Fatalf("error = %v, want asset security marker", err)
	}
	if j.State != job.StateFailed {
		t.Fatalf("state = %s", j.State)
	}
	if gen.calls != 0 {
		t.Fatal("generation must not run after an asset violation")
	}
	last := j.Steps[len(j.Steps)-1]
	if last.Step != "resolve_assets" || last.Status != job.StepFailed {
		t.Fatalf("last step = %+v", last)
	}
}

func TestRunVerificationDisabled(t *testing.T) {
	gen := &stubGenerator{name: "docgen", pdf: []byte("base")}
	post := &stubPost{final: []byte("final")}
	orch := New(testDeps(gen, post))

	j, err := orch.Run(context.Background(), minimalInput(), job.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if j.Verification != nil || j.DiffSummary != nil {
		t.Fatal("verification artifacts must be absent when not requested")
	}
	var verifyStep *job.StepRecord
	for i := range j.Steps {
		if j.Steps[i].Step == "verify" {
			verifyStep = &j.Steps[i]
		}
	}
	if verifyStep == nil || verifyStep.Status != job.StepSkipped {
		t.Fatalf("verify step = %+v", verifyStep)
	}
}

func TestRunPasswordFlowsIntoVerification(t *testing.T) {
	gen := &stubGenerator{name: "docgen", pdf: []byte("base")}
	post := &stubPost{final: []byte("final")}
	orch := New(testDeps(gen, post))

	j, err := orch.Run(context.Background(), minimalInput(), job.Options{Password: "secret", Verify: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if j.Verification == nil || !j.Verification.IsEncrypted {
		t.Fatalf("verification = %+v", j.Verification)
	}
	if j.DiffSummary == nil || !j.DiffSummary.PasswordProtected {
		t.Fatalf("diff = %+v", j.DiffSummary)
	}
}

func TestRunSkipsAssetPhaseWithoutAssets(t *testing.T) {
	gen := &stubGenerator{name: "docgen", pdf: []byte("base")}
	post := &stubPost{final: []byte("final")}
	orch := New(testDeps(gen, post))

	j, err := orch.Run(context.Background(), minimalInput(), job.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if j.Steps[1].Step != "resolve_assets" || j.Steps[1].Status != job.StepSkipped {
		t.Fatalf("asset step = %+v", j.Steps[1])
	}
}

func TestRunIdempotentAgainstDeterministicStubs(t *testing.T) {
	newOrch := func() (*Orchestrator, *stubPost) {
		gen := &stubGenerator{name: "docgen", pdf: []byte("base")}
		post := &stubPost{final: []byte("final")}
		return New(testDeps(gen, post)), post
	}

	orchA, _ := newOrch()
	orchB, _ := newOrch()
	first, err := orchA.Run(context.Background(), minimalInput(), job.Options{Verify: true})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := orchB.Run(context.Background(), minimalInput(), job.Options{Verify: true})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if first.ID == second.ID {
		t.Fatal("job ids must be unique per run")
	}
	if first.Artifact.Filename != second.Artifact.Filename {
		t.Fatalf("filenames differ: %q vs %q", first.Artifact.Filename, second.Artifact.Filename)
	}
	if first.Artifact.Pages != second.Artifact.Pages {
		t.Fatalf("pages differ: %d vs %d", first.Artifact.Pages, second.Artifact.Pages)
	}
	if first.Artifact.ContentHash != second.Artifact.ContentHash {
		t.Fatal("deterministic stubs must yield identical artifact hashes")
	}
	if first.InputHash != second.InputHash {
		t.Fatal("identical input must hash identically")
	}
}

func TestRunWritesArtifactToOutputDir(t *testing.T) {
	gen := &stubGenerator{name: "docgen", pdf: []byte("base")}
	post := &stubPost{final: []byte("final artifact")}
	orch := New(testDeps(gen, post))

	outDir := filepath.Join(t.TempDir(), "out")
	j, err := orch.Run(context.Background(), minimalInput(), job.Options{OutputDir: outDir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if j.OutputPath != filepath.Join(outDir, "acme-v1.0.0-release-notes.pdf") {
		t.Fatalf("output path = %q", j.OutputPath)
	}
	data, err := os.ReadFile(j.OutputPath)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "final artifact" {
		t.Fatalf("artifact = %q", data)
	}
}

func TestRunObserverSeesEveryStep(t *testing.T) {
	gen := &stubGenerator{name: "docgen", pdf: []byte("base")}
	post := &stubPost{final: []byte("final")}
	deps := testDeps(gen, post)

	var observed []string
	deps.Observer = func(j *job.Job, step job.StepRecord) {
		observed = append(observed, step.Step+":"+step.Status)
	}
	orch := New(deps)

	if _, err := orch.Run(context.Background(), minimalInput(), job.Options{Verify: true}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{
		"validate:ok",
		"resolve_assets:skipped",
		"generate:ok",
		"post_process:ok",
		"verify:ok",
		"deliver:ok",
	}
	if len(observed) != len(want) {
		t.Fatalf("observed = %v", observed)
	}
	for i := range want {
		if observed[i] != want[i] {
			t.Fatalf("observed = %v, want %v", observed, want)
		}
	}
}

func TestRunCollaboratorFailureRecordsStep(t *testing.T) {
	gen := &stubGenerator{name: "docgen", err: services.NewError(services.ErrCollaborator, "DOCGEN_ERROR", "boom", "")}
	post := &stubPost{final: []byte("final")}
	orch := New(testDeps(gen, post))

	j, err := orch.Run(context.Background(), minimalInput(), job.Options{})
	if !errors.Is(err, services.ErrCollaborator) {
		t.Fatalf("error = %v", err)
	}
	if j.State != job.StateFailed {
		t.Fatalf("state = %s", j.State)
	}
	last := j.Steps[len(j.Steps)-1]
	if last.Step != "generate" || last.Status != job.StepFailed {
		t.Fatalf("last step = %+v", last)
	}
	if len(post.calls) != 0 {
		t.Fatal("post-processing must not run after generation failure")
	}
}

func TestRunUnknownEngineFailsConfiguration(t *testing.T) {
	gen := &stubGenerator{name: "docgen", pdf: []byte("base")}
	post := &stubPost{final: []byte("final")}
	orch := New(testDeps(gen, post))

	_, err := orch.Run(context.Background(), minimalInput(), job.Options{Engine: "quill"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("error = %v, want configuration marker", err)
	}
}

var _ AssetResolver = (*assets.Resolver)(nil)
var _ Verifier = (*verify.Engine)(nil)
