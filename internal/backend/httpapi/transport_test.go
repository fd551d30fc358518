package httpapi

import (
	"net/http"
	"testing"
	"time"
)

func TestNormalizeBaseURLTrimsTrailingSlashAndDefaults(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"", defaultBaseURL},
		{"https://scores.example.com/", "https://scores.example.com"},
		{"https://scores.example.com", "https://scores.example.com"},
	}

	for _, c := range cases {
		if got := normalizeBaseURL(c.input); got != c.expected {
			t.Fatalf("expected %s, got %s", c.expected, got)
		}
	}
}

func TestResolveHTTPClientTimeouts(t *testing.T) {
	client, ok := resolveHTTPClient(nil, 0).(*http.Client)
	if !ok || client.Timeout != defaultHTTPTimeout {
		t.Fatalf("expected default timeout client, got %+v", client)
	}
	client, _ = resolveHTTPClient(nil, 2*time.Second).(*http.Client)
	if client.Timeout != 2*time.Second {
		t.Fatalf("expected configured timeout, got %s", client.Timeout)
	}
	custom := &http.Client{Timeout: 5 * time.Second}
	if resolveHTTPClient(custom, time.Second) != custom {
		t.Fatalf("expected provided client to be used")
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"", 0},
		{"5", 5 * time.Second},
		{"-1", 0},
		{now.Add(30 * time.Second).Format(http.TimeFormat), 30 * time.Second},
		{"soon", 0},
	}
	for _, c := range cases {
		if got := parseRetryAfter(c.raw, now); got != c.want {
			t.Fatalf("parseRetryAfter(%q) = %s, want %s", c.raw, got, c.want)
		}
	}
}
