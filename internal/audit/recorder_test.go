package audit

import (
	"path/filepath"
	"testing"

	"github.com/fentz26/supportdesk/internal/store"
)

func TestHashInputs_Deterministic(t *testing.T) {
	a := HashInputs(map[string]string{"title": "x", "id": "1"})
	b := HashInputs(map[string]string{"id": "1", "title": "x"})
	if a != b {
		t.Errorf("Expected equal hashes for equal maps, got %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("Expected 64 hex chars, got %d", len(a))
	}
	if HashInputs(func() {}) != "hash_error" {
		t.Error("Expected hash_error for unencodable input")
	}
}

func TestRecord(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer st.Close()

	r := NewRecorder(st)
	entry, err := r.Record("task.delete", map[string]string{"id": "t1"}, "success", "t1", "")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if entry.InputsHash != HashInputs(map[string]string{"id": "t1"}) {
		t.Errorf("Unexpected hash %s", entry.InputsHash)
	}

	entries, _ := st.ListAudit(5)
	if len(entries) != 1 || entries[0].TaskID != "t1" {
		t.Errorf("Expected one persisted entry, got %+v", entries)
	}
}
