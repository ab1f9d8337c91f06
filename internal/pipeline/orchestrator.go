package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docpress/internal/job"
	"docpress/internal/logging"
	"docpress/internal/release"
	"docpress/internal/services"
	"docpress/internal/services/docgen"
	"docpress/internal/textutil"
	"docpress/internal/verify"
)

// PostProcessor is the remote document-transform collaborator.
type PostProcessor interface {
	Upload(ctx context.Context, pdf []byte, filename string) (string, error)
	Watermark(ctx context.Context, docID, text string) (string, error)
	Flatten(ctx context.Context, docID string) (string, error)
	Protect(ctx context.Context, docID, password string) (string, error)
	Download(ctx context.Context, docID string) ([]byte, error)
}

// AssetResolver resolves and hashes the document's asset references in
// place, returning non-fatal warnings.
type AssetResolver interface {
	Resolve(doc *release.Document, baseDir string) ([]string, error)
}

// Verifier inspects final artifacts and compares before/after versions.
type Verifier interface {
	Verify(artifact []byte, exp verify.Expectations) verify.Report
	Diff(before, after []byte, watermarkText string, passwordApplied bool) verify.Summary
}

// StepObserver is invoked after every recorded phase, successful or not.
// Observers must not mutate the job.
type StepObserver func(j *job.Job, step job.StepRecord)

// Deps are the orchestrator's collaborators. Registry and Post are
// required; Resolver, Verifier, Observer, PageCount, and Logger are
// optional.
type Deps struct {
	Registry *docgen.Registry
	Post     PostProcessor
	Resolver AssetResolver
	Verifier Verifier
	Observer StepObserver
	// PageCount is the best-effort page counter for the delivered
	// artifact; failures map to a zero page count.
	PageCount func(artifact []byte) (int, error)
	Logger    *slog.Logger
}

// Orchestrator runs jobs. Safe for concurrent use: each run owns all of
// its mutable state.
type Orchestrator struct {
	deps Deps
}

// New constructs an Orchestrator over the given collaborators.
func New(deps Deps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	if deps.PageCount == nil {
		deps.PageCount = verify.PageCount
	}
	return &Orchestrator{deps: deps}
}

// pipelineContext accumulates one run's intermediate artifacts.
type pipelineContext struct {
	doc      *release.Document
	template docgen.Template
	basePDF  []byte
	finalPDF []byte
}

// Run drives one job through the state machine. The returned Job is always
// non-nil; on failure its state is FAILED, the failing step is recorded,
// and the error is returned alongside it.
func (o *Orchestrator) Run(ctx context.Context, raw []byte, opts job.Options) (*job.Job, error) {
	j := &job.Job{
		ID:        uuid.NewString(),
		State:     job.StateReceived,
		InputHash: hashBytes(raw),
		CreatedAt: time.Now().UTC(),
	}
	ctx = services.WithJobID(ctx, j.ID)
	logger := o.deps.Logger.With(logging.FieldJobID, j.ID)
	logger.Info("job received", logging.Int("input_bytes", len(raw)))

	pc := &pipelineContext{}

	if err := o.runPhase(ctx, j, "validate", job.StateValidated, func(context.Context) (string, error) {
		return o.validate(raw, &opts, pc)
	}); err != nil {
		return j, err
	}

	if err := o.runPhase(ctx, j, "resolve_assets", job.StateAssetResolved, func(context.Context) (string, error) {
		return o.resolveAssets(pc, opts, j)
	}); err != nil {
		return j, err
	}

	if err := o.runPhase(ctx, j, "generate", job.StateBaseGenerated, func(ctx context.Context) (string, error) {
		return o.generate(ctx, pc, opts, j)
	}); err != nil {
		return j, err
	}

	if err := o.runPhase(ctx, j, "post_process", job.StatePostProcessed, func(ctx context.Context) (string, error) {
		return o.postProcess(ctx, pc, opts, j)
	}); err != nil {
		return j, err
	}

	if opts.Verify {
		if err := o.runPhase(ctx, j, "verify", job.StateVerified, func(context.Context) (string, error) {
			return o.verifyArtifact(pc, opts, j)
		}); err != nil {
			return j, err
		}
	} else {
		o.record(j, job.StepRecord{Step: "verify", Status: job.StepSkipped, Detail: "verification not requested"})
	}

	if err := o.runPhase(ctx, j, "deliver", job.StateDelivered, func(context.Context) (string, error) {
		return o.deliver(pc, opts, j)
	}); err != nil {
		return j, err
	}

	logger.Info("job delivered",
		logging.String("filename", j.Artifact.Filename),
		logging.Int("size_bytes", j.Artifact.SizeBytes),
	)
	return j, nil
}

// runPhase times one phase, records its StepRecord, and advances the state
// machine. A phase error records a failed step and moves the job to FAILED.
func (o *Orchestrator) runPhase(ctx context.Context, j *job.Job, name string, next job.State, fn func(ctx context.Context) (string, error)) error {
	ctx = services.WithPhase(ctx, name)
	start := time.Now()
	detail, err := fn(ctx)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		o.record(j, job.StepRecord{Step: name, DurationMS: elapsed, Status: job.StepFailed, Detail: err.Error()})
		j.State = job.StateFailed
		o.deps.Logger.Error("phase failed",
			logging.FieldJobID, j.ID,
			logging.FieldPhase, name,
			logging.Error(err),
		)
		return err
	}

	status := job.StepOK
	if detail == skippedDetail {
		status = job.StepSkipped
		detail = ""
	}
	o.record(j, job.StepRecord{Step: name, DurationMS: elapsed, Status: status, Detail: detail})
	j.State = next
	return nil
}

// skippedDetail is the in-band signal a phase returns when it had nothing
// to do but the state machine should still advance.
const skippedDetail = "\x00skipped"

func (o *Orchestrator) record(j *job.Job, step job.StepRecord) {
	j.Steps = append(j.Steps, step)
	if o.deps.Observer != nil {
		o.deps.Observer(j, step)
	}
}

func (o *Orchestrator) validate(raw []byte, opts *job.Options, pc *pipelineContext) (string, error) {
	doc, err := release.Parse(raw)
	if err != nil {
		return "", err
	}

	tmpl, err := docgen.LookupTemplate(opts.Template)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(opts.WatermarkText) == "" {
		opts.WatermarkText = tmpl.DefaultWatermark
	}

	pc.doc = doc
	pc.template = tmpl
	return fmt.Sprintf("%s %s", doc.ProductName, doc.Version), nil
}

func (o *Orchestrator) resolveAssets(pc *pipelineContext, opts job.Options, j *job.Job) (string, error) {
	if !pc.doc.HasAssets() {
		return skippedDetail, nil
	}
	if o.deps.Resolver == nil {
		j.Warnings = append(j.Warnings, "no asset resolver configured; asset paths left unresolved")
		return skippedDetail, nil
	}
	warnings, err := o.deps.Resolver.Resolve(pc.doc, opts.AssetDir)
	if err != nil {
		return "", err
	}
	j.Warnings = append(j.Warnings, warnings...)
	return fmt.Sprintf("%d assets", len(pc.doc.Images)+len(pc.doc.Attachments)), nil
}

func (o *Orchestrator) generate(ctx context.Context, pc *pipelineContext, opts job.Options, j *job.Job) (string, error) {
	engine := opts.Engine
	if engine == "" {
		engine = "docgen"
	}
	gen, err := o.deps.Registry.Lookup(engine)
	if err != nil {
		return "", err
	}

	pdf, err := gen.Generate(ctx, docgen.Request{Doc: pc.doc, Template: pc.template})
	if err != nil {
		return "", err
	}
	pc.basePDF = pdf
	j.EngineUsed = gen.Name()
	return fmt.Sprintf("engine %s, %d bytes", gen.Name(), len(pdf)), nil
}

// postProcess applies watermark, flatten, and optionally protect, in that
// order. Flatten runs before protect so encryption never locks in
// unflattened interactive elements; protect runs last because structural
// transforms on an encrypted document are not supported upstream.
func (o *Orchestrator) postProcess(ctx context.Context, pc *pipelineContext, opts job.Options, j *job.Job) (string, error) {
	filename := textutil.ReleaseFilename(pc.doc.ProductName, pc.doc.Version)

	docID, err := o.deps.Post.Upload(ctx, pc.basePDF, filename)
	if err != nil {
		return "", err
	}
	j.BeforeDocID = docID

	applied := []string{}
	if opts.WatermarkText != "" {
		docID, err = o.deps.Post.Watermark(ctx, docID, opts.WatermarkText)
		if err != nil {
			return "", err
		}
		applied = append(applied, "watermark")
	}

	docID, err = o.deps.Post.Flatten(ctx, docID)
	if err != nil {
		return "", err
	}
	applied = append(applied, "flatten")

	if opts.PasswordApplied() {
		docID, err = o.deps.Post.Protect(ctx, docID, opts.Password)
		if err != nil {
			return "", err
		}
		applied = append(applied, "protect")
	}
	j.AfterDocID = docID

	pdf, err := o.deps.Post.Download(ctx, docID)
	if err != nil {
		return "", err
	}
	pc.finalPDF = pdf
	return strings.Join(applied, ","), nil
}

// verifyArtifact runs the verification engine. A failing report does not
// fail the job; the caller reads the report and decides.
func (o *Orchestrator) verifyArtifact(pc *pipelineContext, opts job.Options, j *job.Job) (string, error) {
	if o.deps.Verifier == nil {
		return skippedDetail, nil
	}

	report := o.deps.Verifier.Verify(pc.finalPDF, verify.Expectations{
		WatermarkText:     opts.WatermarkText,
		ShouldBeEncrypted: opts.PasswordApplied(),
		ExpectedPages:     opts.ExpectedPages,
	})
	j.Verification = &report

	summary := o.deps.Verifier.Diff(pc.basePDF, pc.finalPDF, opts.WatermarkText, opts.PasswordApplied())
	j.DiffSummary = &summary

	if !report.Passed {
		j.Warnings = append(j.Warnings,
			fmt.Sprintf("verification passed %d of %d checks", report.ChecksPassed, report.ChecksTotal))
	}
	return fmt.Sprintf("%d/%d checks", report.ChecksPassed, report.ChecksTotal), nil
}

func (o *Orchestrator) deliver(pc *pipelineContext, opts job.Options, j *job.Job) (string, error) {
	pages := 0
	if j.Verification != nil {
		pages = j.Verification.PageCount
	} else if n, err := o.deps.PageCount(pc.finalPDF); err == nil {
		pages = n
	}

	j.Artifact = job.ArtifactMetadata{
		Filename:    textutil.ReleaseFilename(pc.doc.ProductName, pc.doc.Version),
		SizeBytes:   len(pc.finalPDF),
		Pages:       pages,
		ContentHash: hashBytes(pc.finalPDF),
	}

	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return "", services.Wrap(services.ErrInternal, "deliver", "create output directory", err)
		}
		path := filepath.Join(opts.OutputDir, j.Artifact.Filename)
		if err := os.WriteFile(path, pc.finalPDF, 0o644); err != nil {
			return "", services.Wrap(services.ErrInternal, "deliver", "write artifact", err)
		}
		j.OutputPath = path
	}
	return j.Artifact.Filename, nil
}

func hashBytes(b []byte) string {
	digest := sha256.Sum256(b)
	return hex.EncodeToString(digest[:])
}
