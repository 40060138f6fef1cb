package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewCLILogger(t *testing.T) {
	quiet, err := NewCLILogger(false)
	if err != nil {
		t.Fatalf("build logger: %v", err)
	}
	if quiet.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("quiet logger should drop info")
	}
	verbose, err := NewCLILogger(true)
	if err != nil {
		t.Fatalf("build logger: %v", err)
	}
	if !verbose.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("verbose logger should keep debug")
	}
}
