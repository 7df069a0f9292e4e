package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/vanderheijden86/logview/pkg/model"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordFillsIDAndTime(t *testing.T) {
	j := openTemp(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return fixed }

	rec, err := j.Record(context.Background(), Record{
		Action: ActionDelete, Filename: "out.log", Path: "app", Type: model.NodeFile, OK: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID == "" {
		t.Error("expected a generated ID")
	}
	if !rec.Time.Equal(fixed) {
		t.Errorf("time = %v, want %v", rec.Time, fixed)
	}
}

func TestRecentNewestFirst(t *testing.T) {
	j := openTemp(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"a.log", "b.log", "c.log"} {
		_, err := j.Record(context.Background(), Record{
			Time:     base.Add(time.Duration(i) * 100 * time.Millisecond),
			Action:   ActionDelete,
			Filename: name,
			Type:     model.NodeFile,
			OK:       i != 1,
			Error:    map[bool]string{true: "", false: "permission denied"}[i != 1],
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	recs, err := j.Recent(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Filename != "c.log" || recs[1].Filename != "b.log" {
		t.Errorf("order = %s, %s", recs[0].Filename, recs[1].Filename)
	}
	if recs[1].OK || recs[1].Error != "permission denied" {
		t.Errorf("failure not stored: %+v", recs[1])
	}
	if recs[0].Type != model.NodeFile || recs[0].Action != ActionDelete {
		t.Errorf("fields lost: %+v", recs[0])
	}
}

func TestRecentDefaultLimitAndEmpty(t *testing.T) {
	j := openTemp(t)
	recs, err := j.Recent(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if recs == nil || len(recs) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", recs)
	}
}

func TestJournalPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	j, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := j.Record(context.Background(), Record{Action: ActionDownload, Filename: "x.log", Type: model.NodeFile, OK: true}); err != nil {
		t.Fatal(err)
	}
	j.Close()

	j, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()
	recs, err := j.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Action != ActionDownload {
		t.Errorf("records after reopen = %+v", recs)
	}
}

func TestOpenMemory(t *testing.T) {
	j, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()
	if _, err := j.Record(context.Background(), Record{Action: ActionDelete, Filename: "m", Type: model.NodeDirectory}); err != nil {
		t.Fatal(err)
	}
}
