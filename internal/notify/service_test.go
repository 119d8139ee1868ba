package notify_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wordmill/internal/notify"
	"wordmill/internal/testsupport"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T, got *[]captured) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		*got = append(*got, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = ""

	svc := notify.NewService(cfg)
	if err := svc.NotifyRunFailed(context.Background(), errors.New("boom")); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestRunCompletedNotification(t *testing.T) {
	var got []captured
	server := newNtfyServer(t, &got)

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL

	svc := notify.NewService(cfg)
	if err := svc.NotifyRunCompleted(context.Background(), 5, 4, 90*time.Second); err != nil {
		t.Fatalf("NotifyRunCompleted: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("requests: got %d want 1", len(got))
	}
	if got[0].title != "Wordmill - Run Complete" {
		t.Errorf("title: got %q", got[0].title)
	}
	if got[0].tags != "wordmill,run,completed" {
		t.Errorf("tags: got %q", got[0].tags)
	}
	if got[0].priority != "" {
		t.Errorf("priority: got %q", got[0].priority)
	}
	if !strings.Contains(got[0].body, "5 cards persisted") || !strings.Contains(got[0].body, "4 synced") {
		t.Errorf("body: got %q", got[0].body)
	}
	if !strings.Contains(got[0].body, "1m30s") {
		t.Errorf("duration missing from body: %q", got[0].body)
	}
}

func TestRunFailedNotificationHasHighPriority(t *testing.T) {
	var got []captured
	server := newNtfyServer(t, &got)

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL

	svc := notify.NewService(cfg)
	if err := svc.NotifyRunFailed(context.Background(), errors.New("store append: disk full")); err != nil {
		t.Fatalf("NotifyRunFailed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("requests: got %d want 1", len(got))
	}
	if got[0].priority != "high" {
		t.Errorf("priority: got %q want high", got[0].priority)
	}
	if !strings.Contains(got[0].body, "disk full") {
		t.Errorf("body: got %q", got[0].body)
	}
}

func TestCompletedToggleSuppressesNotification(t *testing.T) {
	var got []captured
	server := newNtfyServer(t, &got)

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Completed = false

	svc := notify.NewService(cfg)
	if err := svc.NotifyRunCompleted(context.Background(), 3, 3, time.Minute); err != nil {
		t.Fatalf("NotifyRunCompleted: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("suppressed notification still sent: %+v", got)
	}

	if err := svc.NotifyRunFailed(context.Background(), errors.New("boom")); err != nil {
		t.Fatalf("NotifyRunFailed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("errors toggle should stay active: got %d requests", len(got))
	}
}

func TestServerErrorSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic quota exceeded", http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL

	svc := notify.NewService(cfg)
	err := svc.TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status error, got %v", err)
	}
}
