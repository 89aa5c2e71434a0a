package redact_test

import (
	"strings"
	"testing"

	"github.com/vintry/sommelier/pkg/somm/redact"
)

func TestSecrets(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "index unreachable", "index unreachable"},
		{"bearer", `401 from server: Bearer eyJhbGciOi.something`, "401 from server: Bearer <redacted>"},
		{"api key kv", "request failed: api_key=sk-12345 rejected", "request failed: <redacted_kv> rejected"},
		{"gemini key kv", "GEMINI_API_KEY: abc123", "<redacted_kv>"},
		{"url key param", "POST https://example.test/v1beta/models?key=abc123: 429", "POST https://example.test/v1beta/models?key=<redacted>: 429"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := redact.Secrets(tc.in)
			if got != tc.want {
				t.Fatalf("Secrets(%q) = %q, want %q", tc.in, got, tc.want)
			}
			if strings.Contains(got, "abc123") || strings.Contains(got, "sk-12345") {
				t.Fatalf("secret survived redaction: %q", got)
			}
		})
	}
}
