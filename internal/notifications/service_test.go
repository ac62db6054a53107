package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookrip/internal/config"
	"bookrip/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRipCompleted(context.Background(), "Example"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceSendsHeaders(t *testing.T) {
	var (
		gotTitle    string
		gotTags     string
		gotPriority string
		gotBody     string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotTags = r.Header.Get("Tags")
		gotPriority = r.Header.Get("Priority")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Completed = true
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyBookCompleted(context.Background(), "The Long Way Home", 10); err != nil {
		t.Fatalf("NotifyBookCompleted failed: %v", err)
	}
	if gotTitle != "Bookrip - Complete" {
		t.Fatalf("unexpected title: %q", gotTitle)
	}
	if gotTags != "bookrip,workflow,completed" {
		t.Fatalf("unexpected tags: %q", gotTags)
	}
	if gotPriority != "high" {
		t.Fatalf("unexpected priority: %q", gotPriority)
	}
	if gotBody != "Ready to listen: The Long Way Home (10 files)" {
		t.Fatalf("unexpected body: %q", gotBody)
	}
}

func TestNtfyServiceRespectsGates(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Errors = false
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyError(context.Background(), errors.New("boom"), "encoding"); err != nil {
		t.Fatalf("NotifyError failed: %v", err)
	}
	if requests != 0 {
		t.Fatalf("expected gated event to skip delivery, got %d requests", requests)
	}
}

func TestNtfyServiceReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic over quota", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error from non-2xx response")
	}
}
