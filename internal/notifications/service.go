package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docpress/internal/config"
	"docpress/internal/job"
)

const userAgent = "docpress/0.1.0"

// Service defines the notification surface exposed to the CLI.
type Service interface {
	NotifyJobCompleted(ctx context.Context, j *job.Job) error
	NotifyJobFailed(ctx context.Context, j *job.Job, cause error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		jobComplete: cfg.Notifications.JobComplete,
		jobFailed:   cfg.Notifications.JobFailed,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	jobComplete bool
	jobFailed   bool
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, j *job.Job) error {
	if !n.jobComplete || j == nil {
		return nil
	}
	message := fmt.Sprintf("Delivered %s (%d pages, %d bytes)",
		j.Artifact.Filename, j.Artifact.Pages, j.Artifact.SizeBytes)
	if j.Verification != nil {
		message = fmt.Sprintf("%s\nVerification: %d/%d checks",
			message, j.Verification.ChecksPassed, j.Verification.ChecksTotal)
	}
	data := payload{
		title:   "docpress - Job Complete",
		message: message,
		tags:    []string{"docpress", "job", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, j *job.Job, cause error) error {
	if !n.jobFailed {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Job failed")
	if j != nil && len(j.Steps) > 0 {
		builder.WriteString(" at ")
		builder.WriteString(j.Steps[len(j.Steps)-1].Step)
	}
	builder.WriteString(": ")
	if cause != nil {
		builder.WriteString(strings.TrimSpace(cause.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "docpress - Job Failed",
		message:  builder.String(),
		tags:     []string{"docpress", "job", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "docpress - Test",
		message:  "Notification system test",
		tags:     []string{"docpress", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyJobCompleted(context.Context, *job.Job) error     { return nil }
func (noopService) NotifyJobFailed(context.Context, *job.Job, error) error { return nil }
func (noopService) TestNotification(context.Context) error                 { return nil }
