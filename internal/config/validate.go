package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePDFServices(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePDFServices() error {
	if c.PDFServices.PollIntervalSeconds <= 0 {
		return errors.New("pdfservices.poll_interval_seconds must be positive")
	}
	if c.PDFServices.PollTimeoutSeconds <= 0 {
		return errors.New("pdfservices.poll_timeout_seconds must be positive")
	}
	if c.PDFServices.PollTimeoutSeconds < c.PDFServices.PollIntervalSeconds {
		return errors.New("pdfservices.poll_timeout_seconds must be at least the poll interval")
	}
	if c.PDFServices.SubmitRetries < 0 {
		return errors.New("pdfservices.submit_retries must not be negative")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	switch c.Pipeline.DefaultEngine {
	case "docgen", "latex":
	default:
		return fmt.Errorf("pipeline.default_engine must be docgen or latex, got %q", c.Pipeline.DefaultEngine)
	}
	if c.Pipeline.DefaultEngine == "docgen" && c.Docgen.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/docpress/config.toml"
		}
		return fmt.Errorf("docgen.base_url is required for the docgen engine. Edit %s (create with 'docpress config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.Enabled && c.History.RetentionDays <= 0 {
		return errors.New("history.retention_days must be positive when history is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
