package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestLogger(level Level) (*DefaultLogger, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	noColor := false
	noFlags := 0
	l := New(Options{Level: level, Stdout: &stdout, Stderr: &stderr, Color: &noColor, Flags: &noFlags})
	return l, &stdout, &stderr
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{" error ", ErrorLevel, false},
		{"fatal", FatalLevel, false},
		{"verbose", InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultLoggerRoutesByLevel(t *testing.T) {
	l, stdout, stderr := newTestLogger(DebugLevel)

	l.Debug("decoding", Fields{"file": "a.wav"})
	l.Info("done")
	l.Warn("low confidence")
	l.Error(errors.New("boom"), "analysis failed", Fields{"track": 3})

	out := stdout.String()
	if !strings.Contains(out, "[DEBUG] decoding file=a.wav") {
		t.Errorf("stdout missing debug line: %q", out)
	}
	if !strings.Contains(out, "[INFO] done") {
		t.Errorf("stdout missing info line: %q", out)
	}

	errOut := stderr.String()
	if !strings.Contains(errOut, "[WARN] low confidence") {
		t.Errorf("stderr missing warn line: %q", errOut)
	}
	if !strings.Contains(errOut, "[ERROR] analysis failed: boom track=3") {
		t.Errorf("stderr missing error line: %q", errOut)
	}
}

func TestDefaultLoggerLevelFilter(t *testing.T) {
	l, stdout, _ := newTestLogger(WarnLevel)
	l.Info("hidden")
	if stdout.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", stdout.String())
	}

	l.SetLevel(InfoLevel)
	l.Info("shown")
	if !strings.Contains(stdout.String(), "shown") {
		t.Fatalf("info should pass after SetLevel, got %q", stdout.String())
	}
}

func TestWithFieldsAndContext(t *testing.T) {
	l, stdout, _ := newTestLogger(InfoLevel)

	ctx := ContextWithFields(context.Background(), Fields{"request_id": "r1"})
	ctx = ContextWithFields(ctx, Fields{"route": "/health"})

	child := l.WithFields(Fields{"component": "server"}).WithContext(ctx)
	child.Info("ok")

	line := stdout.String()
	for _, want := range []string{"component=server", "request_id=r1", "route=/health"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}

	// parent keeps its own fields
	stdout.Reset()
	l.Info("parent")
	if strings.Contains(stdout.String(), "component=") {
		t.Errorf("parent logger picked up child fields: %q", stdout.String())
	}
}

func TestFatalCallsExit(t *testing.T) {
	l, _, stderr := newTestLogger(InfoLevel)
	code := -1
	l.exit = func(c int) { code = c }

	l.Fatal(errors.New("disk"), "cannot open library")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "[FATAL] cannot open library: disk") {
		t.Fatalf("unexpected fatal output %q", stderr.String())
	}
}

func TestOrNoOp(t *testing.T) {
	if _, ok := OrNoOp(nil).(*NoOpLogger); !ok {
		t.Fatal("OrNoOp(nil) should return a NoOpLogger")
	}
	l := NewDefaultLogger()
	if OrNoOp(l) != Logger(l) {
		t.Fatal("OrNoOp should pass through non-nil loggers")
	}
}
