package texgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"docpress/internal/logging"
	"docpress/internal/services"
	"docpress/internal/services/docgen"
)

// Config controls the local LaTeX toolchain.
type Config struct {
	// TectonicPath is the compiler binary; defaults to "tectonic" on PATH.
	TectonicPath string
	// CompileTimeout bounds a single compilation run.
	CompileTimeout time.Duration
}

// Engine compiles rendered LaTeX sources with tectonic.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// NewEngine constructs the LaTeX engine. A nil logger is replaced with a
// noop.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if cfg.TectonicPath == "" {
		cfg.TectonicPath = "tectonic"
	}
	if cfg.CompileTimeout <= 0 {
		cfg.CompileTimeout = 2 * time.Minute
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Name identifies this engine in the registry.
func (e *Engine) Name() string { return "latex" }

// Generate renders the document to LaTeX and compiles it in a scratch
// directory. The template's layout file is unused here; layout comes from
// the renderer itself.
func (e *Engine) Generate(ctx context.Context, req docgen.Request) ([]byte, error) {
	source := renderDocument(req.Doc)

	workDir, err := os.MkdirTemp("", "docpress-texgen-")
	if err != nil {
		return nil, services.Wrap(services.ErrInternal, "texgen", "create scratch dir", err)
	}
	defer os.RemoveAll(workDir)

	texPath := filepath.Join(workDir, "main.tex")
	if err := os.WriteFile(texPath, []byte(source), 0o644); err != nil {
		return nil, services.Wrap(services.ErrInternal, "texgen", "write source", err)
	}

	compileCtx, cancel := context.WithTimeout(ctx, e.cfg.CompileTimeout)
	defer cancel()

	cmd := exec.CommandContext(compileCtx, e.cfg.TectonicPath, "main.tex")
	cmd.Dir = workDir
	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(compileCtx.Err(), context.DeadlineExceeded) {
			return nil, services.NewError(services.ErrTimeout,
				"TEXGEN_TIMEOUT",
				fmt.Sprintf("LaTeX compilation exceeded %s", e.cfg.CompileTimeout),
				"Increase the compile timeout or simplify the document.")
		}
		return nil, services.NewError(services.ErrCollaborator,
			"TEXGEN_ERROR",
			"LaTeX compilation failed",
			"Check that tectonic is installed and the document text is valid.").
			WithCause(err).
			WithDetail(string(output))
	}

	pdf, err := os.ReadFile(filepath.Join(workDir, "main.pdf"))
	if err != nil {
		return nil, services.Wrap(services.ErrCollaborator, "texgen", "read compiled pdf", err)
	}
	e.logger.Debug("compiled document",
		logging.String("engine", e.Name()),
		logging.Int("size_bytes", len(pdf)),
	)
	return pdf, nil
}
