package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/keshon/datastore"
	"github.com/rs/zerolog"
)

func openStore(t *testing.T, limit int) *Storage {
	t.Helper()
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "data.json"), limit, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndFetch(t *testing.T) {
	s := openStore(t, 5)

	if err := s.AppendCommand("T1", CommandRecord{ChannelID: "C1", UserID: "U1", Command: "echo", Text: "echo hi"}); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendCommand("T2", CommandRecord{ChannelID: "C2", UserID: "U2", Command: "help"}); err != nil {
		t.Fatal(err)
	}

	hist, err := s.CommandHistory("T1")
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 1 || hist[0].Command != "echo" || hist[0].Datetime.IsZero() {
		t.Errorf("history = %+v", hist)
	}

	empty, err := s.CommandHistory("T3")
	if err != nil || len(empty) != 0 {
		t.Errorf("unknown team history = %v, %v", empty, err)
	}
}

func TestHistoryLimit(t *testing.T) {
	s := openStore(t, 3)
	for i := 0; i < 5; i++ {
		if err := s.AppendCommand("", CommandRecord{Command: fmt.Sprintf("c%d", i)}); err != nil {
			t.Fatal(err)
		}
	}
	hist, err := s.CommandHistory("")
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 3 || hist[0].Command != "c2" || hist[2].Command != "c4" {
		t.Errorf("history = %+v", hist)
	}
}

func TestClearHistory(t *testing.T) {
	s := openStore(t, 0)
	if s.limit != DefaultHistoryLimit {
		t.Errorf("limit = %d", s.limit)
	}
	_ = s.AppendCommand("T1", CommandRecord{Command: "ping"})
	_ = s.AppendCommand("T2", CommandRecord{Command: "ping"})
	if err := s.ClearHistory("T1"); err != nil {
		t.Fatal(err)
	}
	hist, _ := s.CommandHistory("T1")
	if len(hist) != 0 {
		t.Errorf("history after clear = %+v", hist)
	}
	other, _ := s.CommandHistory("T2")
	if len(other) != 1 {
		t.Errorf("other team history = %+v", other)
	}
	if err := s.ClearHistory("T9"); err != nil {
		t.Errorf("clear unknown team: %v", err)
	}
}

func TestAppendAfterCloseFails(t *testing.T) {
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "data.json"), 5, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	err = s.AppendCommand("T1", CommandRecord{Command: "ping"})
	if !errors.Is(err, datastore.ErrClosed) {
		t.Errorf("append after close = %v, want ErrClosed", err)
	}
	if err := s.ClearHistory("T1"); !errors.Is(err, datastore.ErrClosed) {
		t.Errorf("clear after close = %v, want ErrClosed", err)
	}
}

func TestNewCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "data.json")
	s, err := New(context.Background(), path, 5, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.AppendCommand("T1", CommandRecord{Command: "ping"}); err != nil {
		t.Fatal(err)
	}
}

func TestCancelledContextStillCloses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s, err := New(ctx, filepath.Join(t.TempDir(), "data.json"), 5, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	cancel()
	if err := s.AppendCommand("T1", CommandRecord{Command: "ping"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s, err := New(context.Background(), path, 10, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AppendCommand("T1", CommandRecord{Command: "roll", UserID: "U1"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := New(context.Background(), path, 10, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	hist, err := s2.CommandHistory("T1")
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 1 || hist[0].Command != "roll" || hist[0].UserID != "U1" {
		t.Errorf("history after reopen = %+v", hist)
	}
}
