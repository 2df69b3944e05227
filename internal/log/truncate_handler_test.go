package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// TestTruncateHandler tests value capping behavior.
func TestTruncateHandler(t *testing.T) {
	t.Parallel()

	t.Run("long string values are capped", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewTruncateHandler(slog.NewJSONHandler(&buf, nil)))

		long := strings.Repeat("x", DefaultMaxValueLen*2)
		logger.Info("page fetched", "body", long, "url", "https://example.com/")

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("failed to parse log output: %v", err)
		}

		body, ok := entry["body"].(string)
		if !ok {
			t.Fatalf("body attribute missing: %v", entry)
		}
		if len(body) > DefaultMaxValueLen+len("...(truncated)") {
			t.Errorf("body length = %d, want capped", len(body))
		}
		if !strings.HasSuffix(body, "...(truncated)") {
			t.Errorf("body = %q, want truncation marker", body[len(body)-30:])
		}
		if entry["url"] != "https://example.com/" {
			t.Errorf("url = %v, want unchanged", entry["url"])
		}
	})

	t.Run("short values pass through", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewTruncateHandler(slog.NewJSONHandler(&buf, nil)))

		logger.Info("fetched", "title", "Docs Home", "status", 200)

		out := buf.String()
		if !strings.Contains(out, "Docs Home") {
			t.Errorf("output missing title: %s", out)
		}
		if strings.Contains(out, "truncated") {
			t.Errorf("short value was truncated: %s", out)
		}
	})

	t.Run("grouped attributes are capped", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewTruncateHandler(slog.NewJSONHandler(&buf, nil)))

		long := strings.Repeat("y", DefaultMaxValueLen*2)
		logger.Info("scored", slog.Group("page", slog.String("analysis", long)))

		if !strings.Contains(buf.String(), "...(truncated)") {
			t.Errorf("grouped value not capped: %s", buf.String())
		}
	})
}

// TestNewLogger tests level selection by verbose flag.
func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("quiet mode suppresses info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, false)

		logger.Info("should not appear")
		logger.Warn("should appear")

		out := buf.String()
		if strings.Contains(out, "should not appear") {
			t.Errorf("info logged in quiet mode: %s", out)
		}
		if !strings.Contains(out, "should appear") {
			t.Errorf("warning missing: %s", out)
		}
	})

	t.Run("verbose mode logs debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, true)

		logger.Debug("debug detail")
		if !strings.Contains(buf.String(), "debug detail") {
			t.Errorf("debug missing in verbose mode: %s", buf.String())
		}
	})
}
