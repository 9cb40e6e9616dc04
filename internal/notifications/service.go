package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"clarion/internal/config"
	"clarion/internal/telemetry"
)

const userAgent = "Clarion/0.1.0"

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

// Notifier publishes job outcomes to ntfy.
type Notifier struct {
	endpoint string
	client   *http.Client
}

// New returns a notifier for cfg's ntfy topic, or nil when none is set.
func New(cfg *config.Config) *Notifier {
	topic := strings.TrimSpace(cfg.Telemetry.NtfyTopic)
	if topic == "" {
		return nil
	}
	timeout := time.Duration(cfg.Telemetry.NtfyTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// Record implements telemetry.Sink. Events other than job outcomes are
// ignored.
func (n *Notifier) Record(ctx context.Context, event telemetry.Event) error {
	data, ok := eventPayload(event)
	if !ok {
		return nil
	}
	return n.send(ctx, data)
}

// Test sends a low-priority test message.
func (n *Notifier) Test(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Clarion - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"clarion", "test"},
		priority: "low",
	})
}

func eventPayload(event telemetry.Event) (payload, bool) {
	format := strings.TrimSpace(event.Format)
	if format == "" {
		format = "unknown"
	}
	switch event.Name {
	case telemetry.EventProcessingSucceeded:
		message := fmt.Sprintf("✅ Enhanced audio ready (%s)", format)
		if event.OriginalSize > 0 && event.ProcessedSize > 0 {
			message = fmt.Sprintf("%s: %s → %s",
				message,
				humanize.IBytes(uint64(event.OriginalSize)),
				humanize.IBytes(uint64(event.ProcessedSize)),
			)
		}
		if event.Ratio != nil {
			message = fmt.Sprintf("%s (%.1f%% smaller)", message, *event.Ratio)
		}
		return payload{
			title:   "Clarion - Enhanced",
			message: message,
			tags:    []string{"clarion", "enhance", format},
		}, true
	case telemetry.EventProcessingFailed:
		reason := strings.TrimSpace(event.Message)
		if reason == "" {
			reason = "unknown error"
		}
		return payload{
			title:    "Clarion - Error",
			message:  fmt.Sprintf("❌ Processing failed: %s", reason),
			tags:     []string{"clarion", "error", "alert"},
			priority: "high",
		}, true
	default:
		return payload{}, false
	}
}

func (n *Notifier) send(ctx context.Context, data payload) error {
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
