package debug

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/vanderheijden86/logview/pkg/logging"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	l, err := logging.New(logging.Options{Level: "debug", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	was := Enabled()
	SetLogger(l)
	t.Cleanup(func() { SetEnabled(was) })
	return &buf
}

func TestDisabledIsSilent(t *testing.T) {
	buf := capture(t)
	SetEnabled(false)

	Log("hello %d", 1)
	LogTiming("op", time.Millisecond)
	LogEnterExit("fn")()
	Dump("v", 3)

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestEnabledWrites(t *testing.T) {
	buf := capture(t)
	SetEnabled(true)

	Log("selected %s", "app/out.log")
	LogIf(false, "never")
	LogIf(true, "sometimes")
	LogEnterExit("reload")()
	Dump("keys", []string{"b"})

	out := buf.String()
	for _, want := range []string{"selected app/out.log", "sometimes", "-> reload", "<- reload", "keys: []string = [b]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "never") {
		t.Error("LogIf(false) wrote a line")
	}
}
