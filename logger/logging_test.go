package logger

import "testing"

type recordingLogger struct {
	lines []string
}

func (r *recordingLogger) Println(msg string) {
	r.lines = append(r.lines, msg)
}

func TestLogRoutesThroughRegisteredLogger(t *testing.T) {
	rec := &recordingLogger{}
	WithLogger(rec)
	defer WithLogger(nil)

	Logf("actor %s started", "/user/a")

	if len(rec.lines) != 1 || rec.lines[0] != "actor /user/a started" {
		t.Fatalf("unexpected lines: %v", rec.lines)
	}
}

func TestNewZapBuildsAWorkingLogger(t *testing.T) {
	l, err := NewZap("debug", "text", "2006-01-02", "15:04:05")
	if err != nil {
		t.Fatalf("NewZap: %v", err)
	}
	l.Println("hello from the zap-backed default")
}

func TestNewZapFallsBackOnUnknownLevel(t *testing.T) {
	l, err := NewZap("not-a-level", "json", "2006-01-02", "15:04:05")
	if err != nil {
		t.Fatalf("NewZap: %v", err)
	}
	l.Println("still works with an unrecognised level")
}
