package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/asheshgoplani/muxd/internal/cmdq"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := newTestStore(t)

	base := time.Now().Truncate(time.Microsecond)
	s.Record(cmdq.Attempt{Queue: "q1", Seq: 1, Command: "new-window", Result: cmdq.ResultNormal, Time: base, Duration: 120 * time.Microsecond})
	s.Record(cmdq.Attempt{Queue: "q1", Seq: 2, Command: "select-window", Result: cmdq.ResultError, Time: base.Add(time.Millisecond)})
	s.Record(cmdq.Attempt{Queue: "q2", Seq: 1, Command: "run-shell", Result: cmdq.ResultWait, Time: base.Add(2 * time.Millisecond)})

	got, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 attempts, got %d", len(got))
	}
	if got[0].Command != "run-shell" || got[0].Result != cmdq.ResultWait {
		t.Errorf("newest attempt wrong: %+v", got[0])
	}
	if got[1].Command != "select-window" || got[1].Result != cmdq.ResultError {
		t.Errorf("second attempt wrong: %+v", got[1])
	}
	if !got[1].Time.Equal(base.Add(time.Millisecond)) {
		t.Errorf("time not preserved: %v", got[1].Time)
	}
}

func TestRecentEmpty(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("want empty, got %d", len(got))
	}
}

func TestReopenKeepsAttempts(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	s1, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s1.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	s1.Record(cmdq.Attempt{Queue: "q1", Seq: 1, Command: "display-message", Time: time.Now()})
	if err := s1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if err := s2.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	got, err := s2.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 || got[0].Command != "display-message" {
		t.Fatalf("attempt not persisted: %+v", got)
	}
}
