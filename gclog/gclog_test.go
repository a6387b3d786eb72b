package gclog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/gphat/babyvm/vm"
)

func openTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "collections.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRecordAndRecent(t *testing.T) {
	r := openTestRecorder(t)

	first := &vm.CollectionStats{
		Reached:   3,
		Swept:     5,
		Freed:     2,
		Live:      3,
		Threshold: 6,
		Duration:  120 * time.Microsecond,
		Timestamp: time.Now().Add(-time.Minute),
	}
	second := &vm.CollectionStats{
		Reached:   1,
		Swept:     3,
		Freed:     2,
		Live:      1,
		Threshold: 2,
		Duration:  80 * time.Microsecond,
		Timestamp: time.Now(),
	}

	if err := r.Record(first); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := r.Record(second); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries, err := r.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}

	// Most recent first.
	if entries[0].Live != 1 || entries[1].Live != 3 {
		t.Errorf("entries out of order: live = %d, %d; want 1, 3", entries[0].Live, entries[1].Live)
	}
	if entries[1].Reached != 3 || entries[1].Swept != 5 || entries[1].Freed != 2 {
		t.Errorf("first collection round-tripped wrong: %+v", entries[1])
	}
	if entries[1].Threshold != 6 {
		t.Errorf("Threshold = %d, want 6", entries[1].Threshold)
	}
	if entries[1].Duration != 120*time.Microsecond {
		t.Errorf("Duration = %v, want 120µs", entries[1].Duration)
	}
}

func TestRecentLimit(t *testing.T) {
	r := openTestRecorder(t)

	for i := 0; i < 5; i++ {
		stats := &vm.CollectionStats{Live: i, Timestamp: time.Now()}
		if err := r.Record(stats); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	entries, err := r.Recent(3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("len(entries) = %d, want 3", len(entries))
	}
	if entries[0].Live != 4 {
		t.Errorf("newest entry live = %d, want 4", entries[0].Live)
	}
}

func TestRecentEmpty(t *testing.T) {
	r := openTestRecorder(t)

	entries, err := r.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d, want 0", len(entries))
	}
}

// Recording integrates with a real collection cycle.
func TestRecordFromCollect(t *testing.T) {
	r := openTestRecorder(t)

	machine := vm.NewVM(8)
	machine.MakeScalar(1)
	machine.Allocate(vm.KindScalar) // garbage
	stats := machine.Collect()

	if err := r.Record(stats); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries, err := r.Recent(1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Freed != 1 || entries[0].Live != 1 {
		t.Errorf("entry = %+v, want freed 1, live 1", entries[0])
	}
}
