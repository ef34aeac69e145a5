package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	l, err := New("svc", "prod")
	if err != nil {
		t.Fatal(err)
	}
	if l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("production logger should not log debug")
	}

	t.Setenv("LOG_LEVEL", "debug")
	l, err = New("svc", "prod")
	if err != nil {
		t.Fatal(err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("LOG_LEVEL=debug should enable debug")
	}

	t.Setenv("LOG_LEVEL", "loud")
	if _, err := New("svc", "prod"); err == nil {
		t.Error("expected error for invalid LOG_LEVEL")
	}
}
