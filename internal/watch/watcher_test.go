package watch

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestDedupe(t *testing.T) {
	cases := []struct {
		in   []string
		want []string
	}{
		{nil, nil},
		{[]string{"a"}, []string{"a"}},
		{[]string{"a", "b", "a", "c", "b"}, []string{"a", "b", "c"}},
		{[]string{"a", "a", "a"}, []string{"a"}},
	}
	for _, tc := range cases {
		in := append([]string(nil), tc.in...)
		got := dedupe(in)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("dedupe(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestWatcherBatchesBurst(t *testing.T) {
	batches := make(chan []string, 2)
	w, err := New(t.TempDir(), 50*time.Millisecond, func(paths []string) {
		batches <- paths
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer w.Stop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.debounceLoop(ctx)

	w.changes <- "/ws/pom.xml"
	w.changes <- "/ws/pom.xml"
	w.changes <- "/ws/A.java"

	var first []string
	select {
	case first = <-batches:
	case <-time.After(5 * time.Second):
		t.Fatal("no batch after the debounce window")
	}
	want := []string{"/ws/pom.xml", "/ws/A.java"}
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("batch = %v, want %v", first, want)
	}
	select {
	case extra := <-batches:
		t.Fatalf("burst produced a second batch: %v", extra)
	case <-time.After(150 * time.Millisecond):
	}

	// The timer is reused after it fires; a later change must debounce
	// into its own full-window batch, not flush on the stale tick.
	w.changes <- "/ws/build.gradle"
	select {
	case second := <-batches:
		if !reflect.DeepEqual(second, []string{"/ws/build.gradle"}) {
			t.Fatalf("second batch = %v", second)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no batch for the follow-up change")
	}
}

func TestWatcherFlushesPendingBatchOnStop(t *testing.T) {
	batches := make(chan []string, 1)
	w, err := New(t.TempDir(), time.Hour, func(paths []string) {
		batches <- paths
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	loopDone := make(chan struct{})
	go func() {
		w.debounceLoop(context.Background())
		close(loopDone)
	}()

	w.changes <- "/ws/pom.xml"
	// Let the loop take the change before stopping.
	time.Sleep(100 * time.Millisecond)
	w.Stop()

	select {
	case batch := <-batches:
		if !reflect.DeepEqual(batch, []string{"/ws/pom.xml"}) {
			t.Fatalf("batch = %v", batch)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pending batch not flushed on Stop")
	}
	<-loopDone
}

func TestWatcherReportsFilesystemBurst(t *testing.T) {
	root := t.TempDir()
	batches := make(chan []string, 2)
	w, err := New(root, 100*time.Millisecond, func(paths []string) {
		batches <- paths
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer w.Stop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	target := filepath.Join(root, "pom.xml")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(target, []byte(strings.Repeat("x", i+1)), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case batch := <-batches:
		found := false
		for _, p := range batch {
			if p == target {
				found = true
			}
		}
		if !found {
			t.Fatalf("batch %v does not contain %s", batch, target)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no batch for filesystem burst")
	}
	select {
	case extra := <-batches:
		t.Fatalf("expected one batch for the burst, got another: %v", extra)
	case <-time.After(300 * time.Millisecond):
	}
}
