package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	log := newTo(&buf, "prod", "warn")
	log.Info().Msg("dropped")
	log.Warn().Str("k", "v").Msg("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("lines = %q", lines)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &m); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if m["message"] != "kept" || m["k"] != "v" || m["service"] != "portal" {
		t.Errorf("entry = %v", m)
	}
}

func TestConsoleInDev(t *testing.T) {
	var buf bytes.Buffer
	l := newTo(&buf, "dev", "bogus")
	l.Info().Msg("hello")
	out := buf.String()
	if !strings.Contains(out, "hello") || strings.HasPrefix(out, "{") {
		t.Errorf("output = %q", out)
	}
}
