package adapters

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-push-relay/pkg/interfaces/logger"
)

func TestLogFailureMasksEndpointAndCarriesError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := NewBaseAdapter(logger.NewWithWriter(&buf))

	base.LogFailure("webpush", "https://push.example.com/sub/supersecrettoken", errors.New("provider returned status 410"))

	line := buf.String()
	if !strings.Contains(line, "provider delivery failed") {
		t.Fatalf("unexpected log line: %q", line)
	}
	if !strings.Contains(line, "provider=webpush") {
		t.Fatalf("provider name missing: %q", line)
	}
	if strings.Contains(line, "supersecrettoken") {
		t.Fatalf("endpoint token leaked: %q", line)
	}
	if !strings.Contains(line, "status 410") {
		t.Fatalf("error detail missing: %q", line)
	}
}

func TestLogSuccessMasksEndpoint(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := NewBaseAdapter(logger.NewWithWriter(&buf))

	base.LogSuccess("webpush", "https://push.example.com/sub/supersecrettoken")

	line := buf.String()
	if !strings.Contains(line, "provider delivered notification") {
		t.Fatalf("unexpected log line: %q", line)
	}
	if strings.Contains(line, "supersecrettoken") {
		t.Fatalf("endpoint token leaked: %q", line)
	}
}
