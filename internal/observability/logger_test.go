package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/querygate/querygate/internal/config"
)

func TestNewLoggerJSONOutput(t *testing.T) {
	cfg, err := config.Load("querygate-api", func(key string) (string, bool) {
		if key == "QUERYGATE_LOG_JSON" {
			return "true", true
		}
		return "", false
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	var buf bytes.Buffer
	logger := NewLogger(cfg, &buf)
	logger.Info("hello")

	out := buf.String()
	if !strings.Contains(out, `"service":"querygate-api"`) {
		t.Fatalf("missing service attribute: %s", out)
	}
	if !strings.Contains(out, `"profile":"dev"`) {
		t.Fatalf("missing profile attribute: %s", out)
	}
}

func TestNewLoggerPrettyDoesNotPanic(t *testing.T) {
	cfg, err := config.Load("querygate-api", func(string) (string, bool) { return "", false })
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	var buf bytes.Buffer
	NewLogger(cfg, &buf).Info("hello", "k", "v")
	if buf.Len() == 0 {
		t.Fatal("expected log output")
	}
}
