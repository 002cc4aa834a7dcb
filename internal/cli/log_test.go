package cli

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerTimestampFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, log.InfoLevel).Info("converted map features")

	// "15:04:05.00" renders as HH:MM:SS.cc at the start of each line.
	re := regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} `)
	if got := buf.String(); !re.MatchString(got) {
		t.Errorf("log line %q missing leading timestamp", got)
	}
	if !strings.Contains(buf.String(), "converted map features") {
		t.Errorf("log line %q missing the message", buf.String())
	}
}

func TestNewLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	logger.Debug("cache key computed")
	if buf.Len() != 0 {
		t.Errorf("debug output at info level: %q", buf.String())
	}

	logger.SetLevel(log.DebugLevel)
	logger.Debug("cache key computed")
	if !strings.Contains(buf.String(), "cache key computed") {
		t.Errorf("debug output missing after SetLevel: %q", buf.String())
	}
}

func TestCLISetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)

	c.Logger.Debug("before")
	c.SetLogLevel(LogDebug)
	c.Logger.Debug("after")

	out := buf.String()
	if strings.Contains(out, "before") {
		t.Errorf("debug line leaked at info level: %q", out)
	}
	if !strings.Contains(out, "after") {
		t.Errorf("debug line missing at debug level: %q", out)
	}
}

func TestProgressDoneAppendsElapsed(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	prog.done("Converted 3 features")

	// done renders the message followed by a parenthesized duration,
	// e.g. "Converted 3 features (12ms)".
	re := regexp.MustCompile(`Converted 3 features \([0-9.]+[a-zµ]+\)`)
	if got := buf.String(); !re.MatchString(got) {
		t.Errorf("done() output %q, want message with elapsed suffix", got)
	}
}

func TestLoggerContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	ctx := withLogger(context.Background(), logger)
	if got := loggerFromContext(ctx); got != logger {
		t.Error("loggerFromContext() did not return the attached logger")
	}

	// Commands run even when the pre-run never attached a logger.
	if got := loggerFromContext(context.Background()); got == nil {
		t.Error("loggerFromContext() = nil for a bare context, want the default logger")
	}
}
