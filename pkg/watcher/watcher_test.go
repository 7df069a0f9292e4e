package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var callCount atomic.Int32

	for i := 0; i < 10; i++ {
		d.Trigger(func() {
			callCount.Add(1)
		})
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)

	if count := callCount.Load(); count != 1 {
		t.Errorf("expected 1 callback invocation, got %d", count)
	}
}

func TestDebouncer_LastTriggerWins(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var got atomic.Value
	for _, v := range []string{"a", "ab", "abc"} {
		v := v
		d.Trigger(func() { got.Store(v) })
	}
	time.Sleep(100 * time.Millisecond)

	if v, _ := got.Load().(string); v != "abc" {
		t.Errorf("expected last trigger to run, got %q", v)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var called atomic.Bool

	d.Trigger(func() {
		called.Store(true)
	})
	if !d.Pending() {
		t.Error("expected a pending call after Trigger")
	}

	d.Cancel()

	time.Sleep(100 * time.Millisecond)

	if called.Load() {
		t.Error("callback should not have been invoked after cancel")
	}
	if d.Pending() {
		t.Error("nothing should be pending after Cancel")
	}
}

func TestDebouncer_DefaultDuration(t *testing.T) {
	d := NewDebouncer(0)
	if d.Duration() != DefaultDebounceDuration {
		t.Errorf("expected default duration %v, got %v", DefaultDebounceDuration, d.Duration())
	}
}

func logDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "app"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app", "out.log"), []byte("initial\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func waitChanged(t *testing.T, w *Watcher, timeout time.Duration) bool {
	t.Helper()
	select {
	case <-w.Changed():
		return true
	case <-time.After(timeout):
		return false
	}
}

func TestWatcher_DetectsNestedWrite(t *testing.T) {
	dir := logDir(t)

	var (
		changeMu sync.Mutex
		changed  bool
	)

	w, err := New(dir,
		WithDebounceDuration(50*time.Millisecond),
		WithOnChange(func() {
			changeMu.Lock()
			changed = true
			changeMu.Unlock()
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "app", "out.log"), []byte("more\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !waitChanged(t, w, 2*time.Second) {
		t.Fatal("expected change to be detected")
	}
	changeMu.Lock()
	defer changeMu.Unlock()
	if !changed {
		t.Error("expected OnChange to run")
	}
}

func TestWatcher_DetectsNewSubdirectory(t *testing.T) {
	dir := logDir(t)

	w, err := New(dir, WithDebounceDuration(30*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if w.IsPolling() {
		t.Skip("fsnotify unavailable on this filesystem")
	}

	sub := filepath.Join(dir, "worker")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if !waitChanged(t, w, 2*time.Second) {
		t.Fatal("expected mkdir to be detected")
	}

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(sub, "job.log"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !waitChanged(t, w, 2*time.Second) {
		t.Fatal("expected write inside the new directory to be detected")
	}
}

func TestWatcher_IgnoresHiddenFiles(t *testing.T) {
	dir := logDir(t)

	w, err := New(dir,
		WithDebounceDuration(20*time.Millisecond),
		WithPollInterval(25*time.Millisecond),
		WithForcePoll(true),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, ".lock"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if waitChanged(t, w, 200*time.Millisecond) {
		t.Error("hidden files must not trigger a change")
	}
}

func TestWatcher_PollingFallback(t *testing.T) {
	dir := logDir(t)

	w, err := New(dir,
		WithDebounceDuration(20*time.Millisecond),
		WithPollInterval(25*time.Millisecond),
		WithForcePoll(true),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Fatal("expected polling mode")
	}

	if err := os.Remove(filepath.Join(dir, "app", "out.log")); err != nil {
		t.Fatal(err)
	}
	if !waitChanged(t, w, time.Second) {
		t.Fatal("expected removal to be detected by polling")
	}
}

func TestWatcher_EnvForcePolling(t *testing.T) {
	for _, name := range []string{"LV_FORCE_POLL", "LV_FORCE_POLLING"} {
		t.Run(name, func(t *testing.T) {
			t.Setenv(name, "1")

			w, err := New(logDir(t), WithPollInterval(25*time.Millisecond))
			if err != nil {
				t.Fatal(err)
			}
			if err := w.Start(); err != nil {
				t.Fatal(err)
			}
			defer w.Stop()

			if !w.IsPolling() {
				t.Fatalf("expected polling mode when %s is set", name)
			}
		})
	}
}

func TestWatcher_RemoteFilesystem_UsesPolling(t *testing.T) {
	orig := detectFilesystemTypeFunc
	detectFilesystemTypeFunc = func(string) FilesystemType { return FSTypeNFS }
	t.Cleanup(func() { detectFilesystemTypeFunc = orig })

	w, err := New(logDir(t), WithPollInterval(25*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Fatal("expected watcher to use polling on remote filesystem")
	}
	if got := w.FilesystemType(); got != FSTypeNFS {
		t.Fatalf("expected filesystem type %v, got %v", FSTypeNFS, got)
	}
}

func TestWatcher_RootRemoved(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "logs")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	var (
		errMu    sync.Mutex
		gotError error
	)
	w, err := New(dir,
		WithPollInterval(25*time.Millisecond),
		WithForcePoll(true),
		WithOnError(func(err error) {
			errMu.Lock()
			gotError = err
			errMu.Unlock()
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	errMu.Lock()
	defer errMu.Unlock()
	if !errors.Is(gotError, ErrRootRemoved) {
		t.Errorf("expected ErrRootRemoved, got %v", gotError)
	}
}

func TestWatcher_StartStop(t *testing.T) {
	w, err := New(logDir(t))
	if err != nil {
		t.Fatal(err)
	}

	if w.IsStarted() {
		t.Error("watcher should not be started initially")
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if !w.IsStarted() {
		t.Error("watcher should be started after Start()")
	}
	if err := w.Start(); err != ErrAlreadyStarted {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}

	w.Stop()
	if w.IsStarted() {
		t.Error("watcher should not be started after Stop()")
	}
	w.Stop()
}

func TestWatcher_StartRejectsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "plain.log")
	if err := os.WriteFile(f, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := New(f)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err == nil {
		w.Stop()
		t.Fatal("expected an error watching a regular file")
	}
}

func TestWatcher_Root(t *testing.T) {
	dir := logDir(t)
	w, err := New(dir, WithPollInterval(500*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	abs, _ := filepath.Abs(dir)
	if w.Root() != abs {
		t.Errorf("expected root %s, got %s", abs, w.Root())
	}
	if got := w.PollInterval(); got != 500*time.Millisecond {
		t.Errorf("expected poll interval 500ms, got %v", got)
	}
}

func TestFilesystemType_String(t *testing.T) {
	tests := []struct {
		fsType   FilesystemType
		expected string
	}{
		{FSTypeUnknown, "unknown"},
		{FSTypeLocal, "local"},
		{FSTypeNFS, "nfs"},
		{FSTypeSMB, "smb"},
		{FSTypeFUSE, "fuse"},
		{FilesystemType(99), "unknown"},
	}

	for _, tc := range tests {
		if got := tc.fsType.String(); got != tc.expected {
			t.Errorf("FilesystemType(%d).String() = %q, expected %q", tc.fsType, got, tc.expected)
		}
	}
}

func TestEnvBool(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"1", true},
		{"TRUE", true},
		{"yes", true},
		{"on", true},
		{"0", false},
		{"no", false},
		{"", false},
		{"invalid", false},
	}

	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			t.Setenv("TEST_ENV_BOOL", tc.value)
			if got := envBool("TEST_ENV_BOOL"); got != tc.expected {
				t.Errorf("envBool(%q) = %v, expected %v", tc.value, got, tc.expected)
			}
		})
	}
}

func TestDetectFilesystemType_EmptyPath(t *testing.T) {
	if got := DetectFilesystemType(""); got != FSTypeUnknown {
		t.Errorf("DetectFilesystemType(\"\") = %v, expected FSTypeUnknown", got)
	}
}

func TestDetectFilesystemType_NonExistentPath(t *testing.T) {
	// Falls back to the nearest existing ancestor.
	nonExistent := filepath.Join(t.TempDir(), "a", "b", "c")
	_ = DetectFilesystemType(nonExistent)
}
