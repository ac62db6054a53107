package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bookrip/internal/config"
)

const userAgent = "bookrip/1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyDiscDetected(ctx context.Context, discTitle string) error
	NotifyRipStarted(ctx context.Context, discTitle string) error
	NotifyRipCompleted(ctx context.Context, discTitle string) error
	NotifyEncodingCompleted(ctx context.Context, discTitle string, trackCount int) error
	NotifyBookCompleted(ctx context.Context, title string, fileCount int) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
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
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		gates:    cfg.Notifications,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	gates    config.Notifications
}

func (n *ntfyService) NotifyDiscDetected(ctx context.Context, discTitle string) error {
	if !n.gates.Rip {
		return nil
	}
	data := payload{
		title:   "Bookrip - Disc Detected",
		message: fmt.Sprintf("Disc detected: %s", strings.TrimSpace(discTitle)),
		tags:    []string{"bookrip", "disc", "detected"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRipStarted(ctx context.Context, discTitle string) error {
	if !n.gates.Rip {
		return nil
	}
	data := payload{
		title:   "Bookrip - Rip Started",
		message: fmt.Sprintf("Started ripping: %s", strings.TrimSpace(discTitle)),
		tags:    []string{"bookrip", "rip", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRipCompleted(ctx context.Context, discTitle string) error {
	if !n.gates.Rip {
		return nil
	}
	data := payload{
		title:   "Bookrip - Rip Complete",
		message: fmt.Sprintf("Rip complete: %s", strings.TrimSpace(discTitle)),
		tags:    []string{"bookrip", "rip", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyEncodingCompleted(ctx context.Context, discTitle string, trackCount int) error {
	if !n.gates.Encoding {
		return nil
	}
	data := payload{
		title:   "Bookrip - Encoded",
		message: fmt.Sprintf("Encoding complete: %s (%d tracks)", strings.TrimSpace(discTitle), trackCount),
		tags:    []string{"bookrip", "encode", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBookCompleted(ctx context.Context, title string, fileCount int) error {
	if !n.gates.Completed {
		return nil
	}
	data := payload{
		title:    "Bookrip - Complete",
		message:  fmt.Sprintf("Ready to listen: %s (%d files)", strings.TrimSpace(title), fileCount),
		tags:     []string{"bookrip", "workflow", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.gates.Errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Bookrip - Error",
		message:  builder.String(),
		tags:     []string{"bookrip", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Bookrip - Test",
		message:  "Notification system test",
		tags:     []string{"bookrip", "test"},
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

func (noopService) NotifyDiscDetected(context.Context, string) error           { return nil }
func (noopService) NotifyRipStarted(context.Context, string) error             { return nil }
func (noopService) NotifyRipCompleted(context.Context, string) error           { return nil }
func (noopService) NotifyEncodingCompleted(context.Context, string, int) error { return nil }
func (noopService) NotifyBookCompleted(context.Context, string, int) error     { return nil }
func (noopService) NotifyError(context.Context, error, string) error           { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
