package audit

import (
	"fmt"
	"testing"

	"github.com/memhive/memhive/internal/identity"
)

func cmo() *identity.Principal {
	return &identity.Principal{ID: "u-cmo", Username: "boss", Role: identity.RoleCMO, IsActive: true}
}

func analyst() *identity.Principal {
	return &identity.Principal{ID: "u-an", Username: "ana", Role: identity.RoleAnalytics, IsActive: true}
}

func TestLogWindowEvictsOldest(t *testing.T) {
	l := NewLog(3)
	for i := 0; i < 5; i++ {
		l.Append(Entry{Resource: fmt.Sprintf("r%d", i)})
	}
	if got := l.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	entries := l.Read(cmo())
	want := []string{"r2", "r3", "r4"}
	for i, e := range entries {
		if e.Resource != want[i] {
			t.Errorf("entries[%d].Resource = %q, want %q", i, e.Resource, want[i])
		}
	}
}

func TestLogDefaultCapacity(t *testing.T) {
	l := NewLog(0)
	for i := 0; i < DefaultCapacity+10; i++ {
		l.Append(Entry{})
	}
	if got := l.Len(); got != DefaultCapacity {
		t.Fatalf("Len() = %d, want %d", got, DefaultCapacity)
	}
}

func TestLogRecordStatuses(t *testing.T) {
	l := NewLog(10)
	l.Record(analyst(), "public_intelligence", true, "membership grants read")
	l.Record(nil, "public_marketing", false, "no principal")

	entries := l.Read(cmo())
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Status != StatusGranted || entries[0].Principal != "ana (analytics)" {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Status != StatusDenied || entries[1].Principal != "anonymous" {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}
}

func TestLogReadRestrictedToTopExecutive(t *testing.T) {
	l := NewLog(10)
	l.Append(Entry{Resource: "public_marketing"})

	if got := l.Read(analyst()); got != nil {
		t.Fatalf("Read(analyst) = %v, want nil", got)
	}
	if got := l.Read(nil); got != nil {
		t.Fatalf("Read(nil) = %v, want nil", got)
	}
	if got := l.Read(cmo()); len(got) != 1 {
		t.Fatalf("Read(cmo) len = %d, want 1", len(got))
	}
}

func TestLogClearRestrictedToTopExecutive(t *testing.T) {
	l := NewLog(10)
	l.Append(Entry{})

	l.Clear(analyst())
	if got := l.Len(); got != 1 {
		t.Fatalf("Len() after unauthorized clear = %d, want 1", got)
	}

	l.Clear(cmo())
	if got := l.Len(); got != 0 {
		t.Fatalf("Len() after clear = %d, want 0", got)
	}
}

func TestSnapshotSince(t *testing.T) {
	l := NewLog(3)
	l.Append(Entry{Resource: "r0"})
	l.Append(Entry{Resource: "r1"})

	fresh, seq := l.SnapshotSince(0)
	if len(fresh) != 2 || seq != 2 {
		t.Fatalf("SnapshotSince(0) = %d entries, seq %d; want 2, 2", len(fresh), seq)
	}

	fresh, seq = l.SnapshotSince(seq)
	if fresh != nil || seq != 2 {
		t.Fatalf("SnapshotSince(2) = %v, seq %d; want nil, 2", fresh, seq)
	}

	// Overflow past the window: only retained entries can be flushed.
	for i := 2; i < 7; i++ {
		l.Append(Entry{Resource: fmt.Sprintf("r%d", i)})
	}
	fresh, seq = l.SnapshotSince(2)
	if len(fresh) != 3 || seq != 7 {
		t.Fatalf("SnapshotSince(2) after overflow = %d entries, seq %d; want 3, 7", len(fresh), seq)
	}
	if fresh[0].Resource != "r4" {
		t.Errorf("fresh[0].Resource = %q, want r4", fresh[0].Resource)
	}
}
