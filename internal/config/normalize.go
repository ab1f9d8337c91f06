package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCredentials()
	c.normalizeLogging()
	c.normalizePipeline()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.TemplateDir, err = expandPath(c.Paths.TemplateDir); err != nil {
		return fmt.Errorf("paths.template_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.AssetDir) != "" {
		if c.Paths.AssetDir, err = expandPath(c.Paths.AssetDir); err != nil {
			return fmt.Errorf("paths.asset_dir: %w", err)
		}
	}
	return nil
}

// normalizeCredentials honours environment fallbacks so credentials never
// have to live in the config file.
func (c *Config) normalizeCredentials() {
	if c.Docgen.ClientID == "" {
		c.Docgen.ClientID = os.Getenv("DOCGEN_CLIENT_ID")
	}
	if c.Docgen.ClientSecret == "" {
		c.Docgen.ClientSecret = os.Getenv("DOCGEN_CLIENT_SECRET")
	}
	if c.PDFServices.ClientID == "" {
		c.PDFServices.ClientID = os.Getenv("PDFSERVICES_CLIENT_ID")
	}
	if c.PDFServices.ClientSecret == "" {
		c.PDFServices.ClientSecret = os.Getenv("PDFSERVICES_CLIENT_SECRET")
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizePipeline() {
	c.Pipeline.DefaultEngine = strings.ToLower(strings.TrimSpace(c.Pipeline.DefaultEngine))
	if c.Pipeline.DefaultEngine == "" {
		c.Pipeline.DefaultEngine = defaultEngine
	}
	c.Pipeline.DefaultTemplate = strings.ToLower(strings.TrimSpace(c.Pipeline.DefaultTemplate))
	if c.Pipeline.DefaultTemplate == "" {
		c.Pipeline.DefaultTemplate = defaultTemplate
	}
}
