package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSetupLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := SetupLogger(&Config{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestSetupLoggerWritesRotationFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "collector.log")

	log, err := SetupLogger(&Config{
		Level:      "debug",
		FormatJSON: true,
		Rotation:   Rotation{File: file, MaxSize: 1, MaxBackups: 1, MaxAge: 1},
	})
	if err != nil {
		t.Fatalf("SetupLogger failed: %v", err)
	}

	log.Info("hello")
	_ = log.Sync()

	info, err := os.Stat(file)
	if err != nil {
		t.Fatalf("expected log file: %v", err)
	}

	if info.Size() == 0 {
		t.Fatalf("expected log file to have content")
	}
}
