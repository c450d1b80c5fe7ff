package util

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestFormatTime(t *testing.T) {
	ts := time.Date(2023, 11, 10, 7, 5, 9, 0, time.UTC)
	tests := map[string]string{
		"YYYY.MM.DD":          "2023.11.10",
		"DD/MM/YY":            "10/11/23",
		"YYYY-MM-DD hh:mm:ss": "2023-11-10 07:05:09",
	}
	for tpl, want := range tests {
		if got := FormatTime(ts, tpl); got != want {
			t.Errorf("FormatTime(%q) = %q, want %q", tpl, got, want)
		}
	}
	if got := FormatTime(time.Time{}, "YYYY"); got != "" {
		t.Errorf("zero time = %q", got)
	}
}

func TestParallel(t *testing.T) {
	var sum atomic.Int64
	err := Parallel(context.Background(), []int{1, 2, 3, 4, 5}, 2, func(ctx context.Context, n int) error {
		sum.Add(int64(n))
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Load() != 15 {
		t.Errorf("sum = %d", sum.Load())
	}
}

func TestParallelFirstError(t *testing.T) {
	boom := errors.New("boom")
	err := Parallel(context.Background(), []int{1, 2, 3, 4}, 1, func(ctx context.Context, n int) error {
		if n == 2 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestParallelEmpty(t *testing.T) {
	called := false
	if err := Parallel(context.Background(), nil, 4, func(context.Context, int) error {
		called = true
		return nil
	}); err != nil || called {
		t.Errorf("err = %v, called = %v", err, called)
	}
}
