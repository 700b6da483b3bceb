package logger

import (
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestPrettyFormatterPlain(t *testing.T) {
	f := &PrettyFormatter{DisableColors: true}
	entry := &logrus.Entry{
		Time:    time.Date(2025, 9, 12, 10, 4, 5, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "listener restarting",
		Data:    logrus.Fields{"port": 5000, "label": "Demo_042"},
	}

	out, err := f.Format(entry)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	want := "10:04:05 WARN  listener restarting label=Demo_042 port=5000\n"
	if string(out) != want {
		t.Errorf("Format = %q, want %q", out, want)
	}
}

func TestPrettyFormatterColors(t *testing.T) {
	f := &PrettyFormatter{}
	out, err := f.Format(&logrus.Entry{Level: logrus.ErrorLevel, Message: "boom", Data: logrus.Fields{}})
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(string(out), colorRed) {
		t.Errorf("expected red level in %q", out)
	}
}

func TestNewLoggerWithLevel(t *testing.T) {
	log, err := NewLoggerWithLevel("warn")
	if err != nil {
		t.Fatalf("NewLoggerWithLevel failed: %v", err)
	}
	if log.GetLevel() != logrus.WarnLevel {
		t.Errorf("expected warn level, got %s", log.GetLevel())
	}

	if _, err := NewLoggerWithLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
