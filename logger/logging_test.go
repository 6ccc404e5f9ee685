package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRespectsDebugFlag(t *testing.T) {
	var buf bytes.Buffer
	l := New("worker-0", true, &buf)
	l.Debugf("hello %s", "world")

	if !strings.Contains(buf.String(), "hello world") {
		t.Fatalf("expected debug output to be written, got %q", buf.String())
	}
}

func TestNewSuppressesDebugWhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	l := New("worker-0", false, &buf)
	l.Debugf("should not appear")

	if buf.Len() != 0 {
		t.Fatalf("expected no output at info level, got %q", buf.String())
	}
}

func TestWithFieldTagsOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New("master", true, &buf).WithField("addr", "127.0.0.1:5555")
	l.Infof("bound")

	if !strings.Contains(buf.String(), "addr=") {
		t.Fatalf("expected addr field in output, got %q", buf.String())
	}
}

func TestDiscardDropsOutput(t *testing.T) {
	l := Discard()
	l.Errorf("this goes nowhere")
}
