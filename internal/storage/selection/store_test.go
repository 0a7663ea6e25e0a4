package selection_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"flex_reviews/internal/storage/selection"
)

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "selections.json")
}

func TestFileStore_ToggleIdempotent(t *testing.T) {
	s := selection.NewFile(tempPath(t))

	if got := s.Toggle(42, true); !reflect.DeepEqual(got, []int64{42}) {
		t.Fatalf("first toggle: %v", got)
	}
	if got := s.Toggle(42, true); !reflect.DeepEqual(got, []int64{42}) {
		t.Fatalf("second toggle must be a no-op: %v", got)
	}
	if got := s.ReadApproved(); !reflect.DeepEqual(got, []int64{42}) {
		t.Fatalf("read: %v", got)
	}
	if got := s.Toggle(42, false); len(got) != 0 {
		t.Fatalf("untoggle: %v", got)
	}
	if got := s.Toggle(99, false); len(got) != 0 {
		t.Fatalf("untoggle of absent id: %v", got)
	}
}

func TestFileStore_SortedAscending(t *testing.T) {
	s := selection.NewFile(tempPath(t))
	s.Toggle(300, true)
	s.Toggle(7, true)
	s.Toggle(42, true)

	if got := s.ReadApproved(); !reflect.DeepEqual(got, []int64{7, 42, 300}) {
		t.Fatalf("order: %v", got)
	}
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	path := tempPath(t)
	selection.NewFile(path).Toggle(42, true)

	// a fresh store over the same file sees the approved set
	if got := selection.NewFile(path).ReadApproved(); !reflect.DeepEqual(got, []int64{42}) {
		t.Fatalf("reopen: %v", got)
	}

	// persisted layout is the documented contract
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	var doc struct {
		SelectedIDs []int64 `json:"selectedIds"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(doc.SelectedIDs, []int64{42}) {
		t.Fatalf("layout: %s", raw)
	}
}

func TestFileStore_MalformedEntriesDropped(t *testing.T) {
	path := tempPath(t)
	if err := os.WriteFile(path, []byte(`{"selectedIds":[3,"x",2.5,1,3,null]}`), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if got := selection.NewFile(path).ReadApproved(); !reflect.DeepEqual(got, []int64{1, 3}) {
		t.Fatalf("recovered set: %v", got)
	}

	// fully malformed document recovers to empty
	if err := os.WriteFile(path, []byte(`not json`), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if got := selection.NewFile(path).ReadApproved(); len(got) != 0 {
		t.Fatalf("malformed doc: %v", got)
	}
}

func TestFileStore_WriteFailureFallsBackToMemory(t *testing.T) {
	// parent "directory" is a regular file, so every write fails
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s := selection.NewFile(filepath.Join(blocker, "selections.json"))

	if got := s.Toggle(42, true); !reflect.DeepEqual(got, []int64{42}) {
		t.Fatalf("toggle during degradation: %v", got)
	}
	// same-process invariants hold on the in-memory path
	if got := s.ReadApproved(); !reflect.DeepEqual(got, []int64{42}) {
		t.Fatalf("read after degradation: %v", got)
	}
	if got := s.Toggle(7, true); !reflect.DeepEqual(got, []int64{7, 42}) {
		t.Fatalf("second toggle: %v", got)
	}
}

func TestMemoryStore_SeededAndIndependent(t *testing.T) {
	a := selection.NewMemory([]int64{9, 1, 9, 4})
	if got := a.ReadApproved(); !reflect.DeepEqual(got, []int64{1, 4, 9}) {
		t.Fatalf("seed not normalized: %v", got)
	}

	b := selection.NewMemory(nil)
	b.Toggle(5, true)
	if got := a.ReadApproved(); !reflect.DeepEqual(got, []int64{1, 4, 9}) {
		t.Fatalf("stores must not share state: %v", got)
	}
}

func TestNew_PicksMemoryWhenUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s := selection.New(filepath.Join(blocker, "selections.json"))
	if got := s.Toggle(1, true); !reflect.DeepEqual(got, []int64{1}) {
		t.Fatalf("memory fallback toggle: %v", got)
	}
}

func TestNew_SeedsMemoryFromExistingFile(t *testing.T) {
	// writable path: New returns the file store and sees prior state
	path := tempPath(t)
	if err := os.WriteFile(path, []byte(`{"selectedIds":[11,22]}`), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if got := selection.New(path).ReadApproved(); !reflect.DeepEqual(got, []int64{11, 22}) {
		t.Fatalf("seeded read: %v", got)
	}
}
