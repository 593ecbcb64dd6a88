package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestInitWithWriter_Level(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantWarn  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"error", false, false},
		{"bogus", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			InitWithWriter(&buf, tt.level)

			Debug("debug line")
			Warn("warn line", "key", "value")

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v (%q)", got, tt.wantDebug, out)
			}
			if got := strings.Contains(out, "warn line"); got != tt.wantWarn {
				t.Errorf("warn logged = %v, want %v (%q)", got, tt.wantWarn, out)
			}
		})
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "info")

	With("variant", "pose").Info("session started")
	if out := buf.String(); !strings.Contains(out, "variant=pose") {
		t.Errorf("log = %q, want variant attribute", out)
	}
}
