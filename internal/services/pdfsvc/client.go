package pdfsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"docpress/internal/logging"
	"docpress/internal/services"
)

const userAgent = "docpress/0.1.0"

// Config carries the connection and polling parameters for the service.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	PollInterval time.Duration
	PollTimeout  time.Duration
	// SubmitRetries is the number of additional submission attempts after
	// the first fails transiently.
	SubmitRetries int
	RetryBackoff  time.Duration
	HTTPTimeout   time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 2 * time.Minute
	}
	if c.SubmitRetries < 0 {
		c.SubmitRetries = 0
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 2 * time.Second
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = time.Minute
	}
	return c
}

// Client is a thin wrapper around the post-processing REST API.
type Client struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// New constructs a Client. A nil logger is replaced with a noop.
func New(cfg Config, logger *slog.Logger) *Client {
	cfg = cfg.withDefaults()
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

// envelope mirrors the service's response shape. Fields appear either at
// the top level or nested under "data" depending on the endpoint.
type envelope struct {
	DocumentID       string    `json:"documentId"`
	ResultDocumentID string    `json:"resultDocumentId"`
	TaskID           string    `json:"taskId"`
	Status           string    `json:"status"`
	Message          string    `json:"message"`
	Error            string    `json:"error"`
	Data             *envelope `json:"data"`
}

func (e *envelope) pick(get func(*envelope) string) string {
	if e == nil {
		return ""
	}
	if v := get(e); v != "" {
		return v
	}
	if e.Data != nil {
		return get(e.Data)
	}
	return ""
}

func (e *envelope) documentID() string {
	if id := e.pick(func(v *envelope) string { return v.ResultDocumentID }); id != "" {
		return id
	}
	return e.pick(func(v *envelope) string { return v.DocumentID })
}

func (e *envelope) taskID() string { return e.pick(func(v *envelope) string { return v.TaskID }) }

func (e *envelope) status() string {
	return strings.ToUpper(e.pick(func(v *envelope) string { return v.Status }))
}

func (e *envelope) failureMessage() string {
	if msg := e.pick(func(v *envelope) string { return v.Message }); msg != "" {
		return msg
	}
	if msg := e.pick(func(v *envelope) string { return v.Error }); msg != "" {
		return msg
	}
	return "unknown"
}

// Upload uploads a PDF and returns its document handle.
func (c *Client) Upload(ctx context.Context, pdf []byte, filename string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", services.Wrap(services.ErrInternal, "upload", "build multipart body", err)
	}
	if _, err := part.Write(pdf); err != nil {
		return "", services.Wrap(services.ErrInternal, "upload", "build multipart body", err)
	}
	if err := writer.Close(); err != nil {
		return "", services.Wrap(services.ErrInternal, "upload", "build multipart body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/documents/upload", &body)
	if err != nil {
		return "", services.Wrap(services.ErrInternal, "upload", "build request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setAuth(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrCollaborator, "upload", "post document", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", c.statusError("upload", resp)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", services.Wrap(services.ErrCollaborator, "upload", "decode response", err)
	}
	docID := env.documentID()
	if docID == "" {
		return "", services.NewError(services.ErrCollaborator, "PDFSVC_UPLOAD_ERROR",
			"upload response carried no document id",
			"Check the post-processing service base URL and credentials.")
	}
	c.logger.Debug("uploaded document",
		logging.Int("size_bytes", len(pdf)),
		logging.String("doc_id", docID),
	)
	return docID, nil
}

// Download fetches the bytes of a document by handle.
func (c *Client) Download(ctx context.Context, docID string) ([]byte, error) {
	url := fmt.Sprintf("%s/api/documents/%s/download", c.cfg.BaseURL, docID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrInternal, "download", "build request", err)
	}
	c.setAuth(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrCollaborator, "download", "fetch document", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, c.statusError("download", resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrCollaborator, "download", "read document body", err)
	}
	c.logger.Debug("downloaded document", logging.Int("size_bytes", len(data)))
	return data, nil
}

// runOperation submits an operation, polls its task to completion, and
// returns the result document handle. Operations whose response carries a
// document id directly (no task) skip polling.
func (c *Client) runOperation(ctx context.Context, name, endpoint string, payload any) (string, error) {
	env, err := c.submit(ctx, name, endpoint, payload)
	if err != nil {
		return "", err
	}
	taskID := env.taskID()
	if taskID == "" {
		if docID := env.documentID(); docID != "" {
			return docID, nil
		}
		return "", services.NewError(services.ErrCollaborator,
			operationCode(name),
			fmt.Sprintf("%s response carried neither task nor document id", name),
			"Check the post-processing service API version.")
	}
	return c.pollTask(ctx, name, taskID)
}

// submit POSTs an operation, retrying transport failures and server errors
// a bounded number of times with fixed backoff. Client errors (4xx) are
// never retried.
func (c *Client) submit(ctx context.Context, name, endpoint string, payload any) (*envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, services.Wrap(services.ErrInternal, name, "encode payload", err)
	}

	attempts := c.cfg.SubmitRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		env, retryable, err := c.submitOnce(ctx, name, endpoint, body)
		if err == nil {
			return env, nil
		}
		lastErr = err
		if !retryable || attempt == attempts {
			break
		}
		c.logger.Warn("retrying submission",
			logging.String("operation", name),
			logging.Int("attempt", attempt),
			logging.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, services.Wrap(services.ErrCollaborator, name, "submission canceled", ctx.Err())
		case <-time.After(c.cfg.RetryBackoff):
		}
	}
	return nil, lastErr
}

func (c *Client) submitOnce(ctx context.Context, name, endpoint string, body []byte) (*envelope, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, services.Wrap(services.ErrInternal, name, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, true, services.Wrap(services.ErrCollaborator, name, "post operation", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, resp.StatusCode >= 500, c.statusError(name, resp)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, false, services.Wrap(services.ErrCollaborator, name, "decode response", err)
	}
	return &env, false, nil
}

// pollTask polls the task at the configured interval until it completes,
// fails, or the poll budget elapses. A transport failure during polling is
// fatal to the operation.
func (c *Client) pollTask(ctx context.Context, name, taskID string) (string, error) {
	deadline := time.Now().Add(c.cfg.PollTimeout)
	url := fmt.Sprintf("%s/api/tasks/%s", c.cfg.BaseURL, taskID)

	for {
		if time.Now().After(deadline) {
			return "", services.NewError(services.ErrTimeout,
				"PDFSVC_TIMEOUT",
				fmt.Sprintf("task %s did not complete within %s", taskID, c.cfg.PollTimeout),
				"Increase pdfservices.poll_timeout or retry later.")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", services.Wrap(services.ErrInternal, name, "build poll request", err)
		}
		c.setAuth(req)

		resp, err := c.client.Do(req)
		if err != nil {
			return "", services.Wrap(services.ErrCollaborator, name, "poll task", err)
		}
		var env envelope
		decodeErr := json.NewDecoder(resp.Body).Decode(&env)
		status := resp.StatusCode
		_ = resp.Body.Close()
		if status >= 300 {
			return "", services.NewError(services.ErrCollaborator,
				operationCode(name),
				fmt.Sprintf("task poll returned HTTP %d", status),
				"Check the post-processing service health.")
		}
		if decodeErr != nil {
			return "", services.Wrap(services.ErrCollaborator, name, "decode poll response", decodeErr)
		}

		switch env.status() {
		case "COMPLETED", "DONE", "SUCCESS":
			docID := env.documentID()
			if docID == "" {
				return "", services.NewError(services.ErrCollaborator,
					operationCode(name),
					fmt.Sprintf("task %s completed without a result document id", taskID),
					"Check the post-processing service API version.")
			}
			return docID, nil
		case "FAILED", "ERROR":
			return "", services.NewError(services.ErrCollaborator,
				operationCode(name),
				fmt.Sprintf("task %s failed: %s", taskID, env.failureMessage()),
				"Check the operation configuration and the input document.")
		}

		select {
		case <-ctx.Done():
			return "", services.Wrap(services.ErrCollaborator, name, "polling canceled", ctx.Err())
		case <-time.After(c.cfg.PollInterval):
		}
	}
}

func (c *Client) setAuth(req *http.Request) {
	req.Header.Set("client_id", c.cfg.ClientID)
	req.Header.Set("client_secret", c.cfg.ClientSecret)
	req.Header.Set("User-Agent", userAgent)
}

func (c *Client) statusError(name string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return services.NewError(services.ErrCollaborator,
		operationCode(name),
		fmt.Sprintf("post-processing %s returned HTTP %d", name, resp.StatusCode),
		"Check your post-processing API credentials and the input format.").
		WithDetail(strings.TrimSpace(string(body)))
}

func operationCode(name string) string {
	return "PDFSVC_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_")) + "_ERROR"
}
