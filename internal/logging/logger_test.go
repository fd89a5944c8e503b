package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewJSONLoggerWritesToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "retroref.log")
	logger, err := New(Options{Level: "info", Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("transfer committed", String(FieldSystem, "snes"), Int("bytes", 42))
	logger.Debug("should be filtered")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"transfer committed"`) {
		t.Fatalf("missing message:\n%s", out)
	}
	if !strings.Contains(out, `"level":"info"`) || !strings.Contains(out, `"ts"`) {
		t.Fatalf("missing normalized keys:\n%s", out)
	}
	if !strings.Contains(out, `"system":"snes"`) {
		t.Fatalf("missing attribute:\n%s", out)
	}
	if strings.Contains(out, "should be filtered") {
		t.Fatalf("debug record leaked past info level:\n%s", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestPrettyHandlerLiftsComponent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl, false))

	NewComponentLogger(logger, "crawler").Info("page fetched", String("url", "http://m/a/"), Int("depth", 2))

	line := buf.String()
	if !strings.Contains(line, " INFO crawler: page fetched") {
		t.Fatalf("component not lifted into prefix:\n%s", line)
	}
	if !strings.Contains(line, "url=http://m/a/") || !strings.Contains(line, "depth=2") {
		t.Fatalf("attributes missing:\n%s", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component duplicated as attribute:\n%s", line)
	}
}

func TestPrettyHandlerQuotesValuesWithSpaces(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl, false))

	logger.Warn("skipping file", String("name", "Chrono Trigger (USA).sfc"))

	if !strings.Contains(buf.String(), `name="Chrono Trigger (USA).sfc"`) {
		t.Fatalf("value not quoted:\n%s", buf.String())
	}
}

func TestContextFieldsRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := WithTaskID(WithSystem(context.Background(), "genesis"), "abc123")
	fields := ContextFields(ctx)
	if len(fields) != 2 {
		t.Fatalf("fields = %v", fields)
	}
	if fields[0].Key != FieldSystem || fields[0].Value.String() != "genesis" {
		t.Fatalf("system field = %v", fields[0])
	}
	if fields[1].Key != FieldTaskID || fields[1].Value.String() != "abc123" {
		t.Fatalf("task field = %v", fields[1])
	}

	if got := ContextFields(context.Background()); len(got) != 0 {
		t.Fatalf("empty context produced fields: %v", got)
	}
}

func TestNewComponentLoggerNilBase(t *testing.T) {
	t.Parallel()

	logger := NewComponentLogger(nil, "store")
	logger.Info("must not panic")
}
