package docgen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docpress/internal/logging"
	"docpress/internal/services"
)

// Config carries the connection parameters for the generation API and the
// directory holding the layout template files.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	TemplateDir  string
	HTTPTimeout  time.Duration
}

// Client is the remote document-generation engine.
type Client struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// NewClient constructs the remote engine. A nil logger is replaced with a
// noop.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 2 * time.Minute
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
		logger: logger,
	}
}

// Name identifies this engine in the registry.
func (c *Client) Name() string { return "docgen" }

type generateRequest struct {
	Template     string         `json:"template"`
	Data         map[string]any `json:"data"`
	OutputFormat string         `json:"outputFormat"`
}

type generateResponse struct {
	Document string            `json:"document"`
	Data     *generateResponse `json:"data"`
}

// Generate renders the document by posting its values and the
// base64-encoded layout template to the generation API. The response is
// either the PDF body itself or a JSON envelope carrying it base64-encoded.
func (c *Client) Generate(ctx context.Context, req Request) ([]byte, error) {
	templatePath := filepath.Join(c.cfg.TemplateDir, req.Template.Filename)
	templateBytes, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, services.NewError(services.ErrConfiguration,
			"TEMPLATE_FILE_MISSING",
			fmt.Sprintf("template file %s is not readable", templatePath),
			"Check docgen.template_dir and the installed template files.").
			WithCause(err)
	}

	payload := generateRequest{
		Template:     base64.StdEncoding.EncodeToString(templateBytes),
		Data:         payloadData(req.Doc),
		OutputFormat: "pdf",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, services.Wrap(services.ErrInternal, "docgen", "encode payload", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/api/documents/generate/pdf", bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrInternal, "docgen", "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("client_id", c.cfg.ClientID)
	httpReq.Header.Set("client_secret", c.cfg.ClientSecret)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, services.Wrap(services.ErrCollaborator, "docgen", "post generation request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, services.NewError(services.ErrCollaborator,
			"DOCGEN_ERROR",
			fmt.Sprintf("generation API returned HTTP %d", resp.StatusCode),
			"Check your generation API credentials and the template.").
			WithDetail(strings.TrimSpace(string(detail)))
	}

	pdf, err := c.decodeDocument(resp)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("generated base document",
		logging.String("template", req.Template.Name),
		logging.Int("size_bytes", len(pdf)),
	)
	return pdf, nil
}

func (c *Client) decodeDocument(resp *http.Response) ([]byte, error) {
	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "pdf") || strings.Contains(contentType, "octet-stream") {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, services.Wrap(services.ErrCollaborator, "docgen", "read document body", err)
		}
		return data, nil
	}

	var env generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, services.Wrap(services.ErrCollaborator, "docgen", "decode response", err)
	}
	encoded := env.Document
	if encoded == "" && env.Data != nil {
		encoded = env.Data.Document
	}
	if encoded == "" {
		return nil, services.NewError(services.ErrCollaborator,
			"DOCGEN_ERROR",
			"generation response carried no document",
			"Check the generation API version.")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, services.Wrap(services.ErrCollaborator, "docgen", "decode document payload", err)
	}
	return data, nil
}
