package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docpress/internal/config"
	"docpress/internal/job"
	"docpress/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyJobCompleted(context.Background(), &job.Job{}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNotifyJobCompletedFormatsMessage(t *testing.T) {
	var gotTitle, gotTags, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotTags = r.Header.Get("Tags")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	j := &job.Job{
		State: job.StateDelivered,
		Artifact: job.ArtifactMetadata{
			Filename:  "acme-v1.0.0-release-notes.pdf",
			Pages:     3,
			SizeBytes: 4096,
		},
	}
	if err := svc.NotifyJobCompleted(context.Background(), j); err != nil {
		t.Fatalf("NotifyJobCompleted: %v", err)
	}
	if gotTitle != "docpress - Job Complete" {
		t.Fatalf("title = %q", gotTitle)
	}
	if gotTags != "docpress,job,completed" {
		t.Fatalf("tags = %q", gotTags)
	}
	if !strings.Contains(gotBody, "acme-v1.0.0-release-notes.pdf") || !strings.Contains(gotBody, "3 pages") {
		t.Fatalf("body = %q", gotBody)
	}
}

func TestNotifyJobFailedHighPriority(t *testing.T) {
	var gotPriority, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPriority = r.Header.Get("Priority")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	j := &job.Job{
		State: job.StateFailed,
		Steps: []job.StepRecord{{Step: "generate", Status: job.StepFailed}},
	}
	if err := svc.NotifyJobFailed(context.Background(), j, errors.New("engine exploded")); err != nil {
		t.Fatalf("NotifyJobFailed: %v", err)
	}
	if gotPriority != "high" {
		t.Fatalf("priority = %q", gotPriority)
	}
	if !strings.Contains(gotBody, "generate") || !strings.Contains(gotBody, "engine exploded") {
		t.Fatalf("body = %q", gotBody)
	}
}

func TestDisabledEventsSendNothing(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.JobComplete = false
	cfg.Notifications.JobFailed = false
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyJobCompleted(context.Background(), &job.Job{}); err != nil {
		t.Fatalf("NotifyJobCompleted: %v", err)
	}
	if err := svc.NotifyJobFailed(context.Background(), &job.Job{}, errors.New("x")); err != nil {
		t.Fatalf("NotifyJobFailed: %v", err)
	}
	if calls != 0 {
		t.Fatalf("calls = %d, want 0", calls)
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("ntfy error status must surface")
	}
}
