package job

import (
	"time"

	"docpress/internal/verify"
)

// State is the lifecycle of a pipeline job. States advance strictly in
// order; FAILED is absorbing and reachable from any non-terminal state.
type State string

const (
	StateReceived      State = "RECEIVED"
	StateValidated     State = "VALIDATED"
	StateAssetResolved State = "ASSET_RESOLVED"
	StateBaseGenerated State = "BASE_GENERATED"
	StatePostProcessed State = "POST_PROCESSED"
	StateVerified      State = "VERIFIED"
	StateDelivered     State = "DELIVERED"
	StateFailed        State = "FAILED"
)

// Terminal reports whether the state machine can advance no further.
func (s State) Terminal() bool {
	return s == StateDelivered || s == StateFailed
}

// Step statuses recorded per pipeline phase.
const (
	StepOK      = "ok"
	StepSkipped = "skipped"
	StepFailed  = "failed"
)

// StepRecord captures one pipeline phase: name, wall-clock duration in
// whole milliseconds, outcome, and free-text detail.
type StepRecord struct {
	Step       string `json:"step"`
	DurationMS int64  `json:"duration_ms"`
	Status     string `json:"status"`
	Detail     string `json:"detail,omitempty"`
}

// ArtifactMetadata describes the delivered artifact.
type ArtifactMetadata struct {
	Filename    string `json:"filename"`
	SizeBytes   int    `json:"size_bytes"`
	Pages       int    `json:"pages"`
	ContentHash string `json:"content_hash"`
}

// Job is the complete output contract for a pipeline run.
type Job struct {
	ID          string           `json:"job_id"`
	State       State            `json:"state"`
	EngineUsed  string           `json:"engine_used"`
	InputHash   string           `json:"input_hash"`
	Artifact    ArtifactMetadata `json:"artifact"`
	BeforeDocID string           `json:"before_doc_id,omitempty"`
	AfterDocID  string           `json:"after_doc_id,omitempty"`
	OutputPath  string           `json:"output_path,omitempty"`
	Steps       []StepRecord     `json:"timings"`
	Warnings    []string         `json:"warnings,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`

	Verification *verify.Report  `json:"verification,omitempty"`
	DiffSummary  *verify.Summary `json:"diff_summary,omitempty"`
}

// Options shape a single pipeline run.
type Options struct {
	// Engine selects the generation engine variant ("docgen", "latex").
	Engine string
	// Template selects the generation template.
	Template string
	// WatermarkText is stamped on every page of the artifact.
	WatermarkText string
	// Password, when non-empty, triggers the protection transform.
	Password string
	// Verify runs the verification engine on the final artifact.
	Verify bool
	// AssetDir is the root directory for resolving asset paths.
	AssetDir string
	// OutputDir, when non-empty, receives the delivered artifact file.
	OutputDir string
	// ExpectedPages, when positive, is asserted by verification.
	ExpectedPages int
}

// PasswordApplied reports whether protection was requested.
func (o Options) PasswordApplied() bool {
	return o.Password != ""
}
