package monitoring

import (
	"strings"
	"testing"
)

func TestSetLogger_CapturesPipelineTags(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, format)
	})

	Logf("[scene] run %.8s: %d elements", "deadbeef", 3)
	Logf("[cache] loaded %s", "photo.png")

	if len(lines) != 2 {
		t.Fatalf("captured %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "[scene]") || !strings.HasPrefix(lines[1], "[cache]") {
		t.Errorf("tags lost: %v", lines)
	}
}

func TestSetLogger_NilMutes(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(string, ...interface{}) { called = true })
	SetLogger(nil)
	Logf("[remove] should go nowhere")

	if called {
		t.Error("nil logger must mute output, not reuse the previous logger")
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Error("Logf must be usable without SetLogger")
	}
}
