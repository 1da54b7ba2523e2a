package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/mamadbah2/herd/internal/config"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level   string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log, err := New(config.LogConfig{Level: tt.level})
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error for invalid level")
				}
				return
			}
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			if !log.Core().Enabled(tt.want) {
				t.Errorf("Expected level %s to be enabled", tt.want)
			}
			if tt.want > zapcore.DebugLevel && log.Core().Enabled(tt.want-1) {
				t.Errorf("Expected level below %s to be disabled", tt.want)
			}
		})
	}
}

func TestNamedWithNilBase(t *testing.T) {
	if Named(nil, "x") == nil {
		t.Error("Expected a no-op logger for a nil base")
	}
}

func TestConsoleFormat(t *testing.T) {
	log, err := New(config.LogConfig{Level: "error", Format: "console"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if log.Core().Enabled(zapcore.WarnLevel) {
		t.Error("Expected warn to be disabled at error level")
	}
}

func TestMustPanicsOnError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected Must to panic")
		}
	}()
	Must(New(config.LogConfig{Level: "loud"}))
}
