package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clarion/internal/config"
	"clarion/internal/notifications"
	"clarion/internal/telemetry"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
	calls    int
}

func newServer(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		got.calls++
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		body, _ := io.ReadAll(r.Body)
		got.body = string(body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte("topic rejected"))
	}))
	t.Cleanup(server.Close)
	return server, got
}

func notifierFor(url string) *notifications.Notifier {
	cfg := config.Default()
	cfg.Telemetry.NtfyTopic = url
	cfg.Telemetry.NtfyTimeoutSeconds = 5
	return notifications.New(&cfg)
}

func TestNewReturnsNilWithoutTopic(t *testing.T) {
	cfg := config.Default()
	if n := notifications.New(&cfg); n != nil {
		t.Fatalf("expected nil notifier, got %+v", n)
	}
	var n *notifications.Notifier
	if err := n.Record(context.Background(), telemetry.Event{Name: telemetry.EventProcessingFailed}); err != nil {
		t.Fatalf("nil notifier should be a no-op, got %v", err)
	}
}

func TestNotifierFormatsOutcomes(t *testing.T) {
	ratio := 75.0
	tests := []struct {
		name           string
		event          telemetry.Event
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "succeeded",
			event: telemetry.Event{
				Name:          telemetry.EventProcessingSucceeded,
				Format:        "ogg",
				OriginalSize:  4096,
				ProcessedSize: 1024,
				Ratio:         &ratio,
			},
			expectTitle:   "Clarion - Enhanced",
			expectMessage: "✅ Enhanced audio ready (ogg): 4.0 KiB → 1.0 KiB (75.0% smaller)",
			expectTags:    "clarion,enhance,ogg",
		},
		{
			name:           "failed",
			event:          telemetry.Event{Name: telemetry.EventProcessingFailed, Message: "Invalid data found when processing input"},
			expectTitle:    "Clarion - Error",
			expectMessage:  "❌ Processing failed: Invalid data found when processing input",
			expectTags:     "clarion,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, got := newServer(t, http.StatusOK)
			if err := notifierFor(server.URL).Record(context.Background(), tc.event); err != nil {
				t.Fatalf("Record: %v", err)
			}
			if got.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, got.title)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, got.body)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, got.tags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, got.priority)
			}
		})
	}
}

func TestNotifierIgnoresOtherEvents(t *testing.T) {
	server, got := newServer(t, http.StatusOK)
	n := notifierFor(server.URL)
	for _, name := range []string{telemetry.EventProcessingStarted, telemetry.EventDownloadCompleted} {
		if err := n.Record(context.Background(), telemetry.Event{Name: name}); err != nil {
			t.Fatalf("Record %s: %v", name, err)
		}
	}
	if got.calls != 0 {
		t.Fatalf("expected no requests, got %d", got.calls)
	}
}

func TestNotifierReportsRejectedRequests(t *testing.T) {
	server, _ := newServer(t, http.StatusForbidden)
	err := notifierFor(server.URL).Test(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "topic rejected") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
