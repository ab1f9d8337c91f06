package main

import (
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"docpress/internal/assets"
	"docpress/internal/config"
	"docpress/internal/logging"
	"docpress/internal/pipeline"
	"docpress/internal/services/docgen"
	"docpress/internal/services/pdfsvc"
	"docpress/internal/services/texgen"
	"docpress/internal/verify"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: os.Stderr,
		})
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger.With(logging.FieldComponent, "cli")
	})
	return c.logger
}

// jsonOutput reports whether machine-readable output was requested, either
// explicitly or because stdout is not a terminal.
func (c *commandContext) jsonOutput() bool {
	if c.jsonFlag != nil && *c.jsonFlag {
		return true
	}
	fd := os.Stdout.Fd()
	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}

// buildOrchestrator wires the pipeline from configuration.
func (c *commandContext) buildOrchestrator() (*pipeline.Orchestrator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := c.ensureLogger()

	remote := docgen.NewClient(docgen.Config{
		BaseURL:      cfg.Docgen.BaseURL,
		ClientID:     cfg.Docgen.ClientID,
		ClientSecret: cfg.Docgen.ClientSecret,
		TemplateDir:  cfg.Paths.TemplateDir,
		HTTPTimeout:  time.Duration(cfg.Docgen.TimeoutSeconds) * time.Second,
	}, logger)
	latex := texgen.NewEngine(texgen.Config{
		TectonicPath:   cfg.Texgen.TectonicPath,
		CompileTimeout: time.Duration(cfg.Texgen.CompileTimeoutSeconds) * time.Second,
	}, logger)

	post := pdfsvc.New(pdfsvc.Config{
		BaseURL:       cfg.PDFServices.BaseURL,
		ClientID:      cfg.PDFServices.ClientID,
		ClientSecret:  cfg.PDFServices.ClientSecret,
		PollInterval:  time.Duration(cfg.PDFServices.PollIntervalSeconds) * time.Second,
		PollTimeout:   time.Duration(cfg.PDFServices.PollTimeoutSeconds) * time.Second,
		SubmitRetries: cfg.PDFServices.SubmitRetries,
		RetryBackoff:  time.Duration(cfg.PDFServices.RetryBackoffSeconds) * time.Second,
	}, logger)

	return pipeline.New(pipeline.Deps{
		Registry: docgen.NewRegistry(remote, latex),
		Post:     post,
		Resolver: assets.NewResolver(logger),
		Verifier: verify.NewEngine(verify.NewPDFInspector()),
		Logger:   logger,
	}), nil
}
