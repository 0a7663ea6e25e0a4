// Package selection persists the set of review IDs approved for public
// display. One JSON document, {"selectedIds":[...]}, ascending integers.
//
// Two backends implement domain.SelectionStore: a file-backed store for
// environments with writable local storage and an in-memory store for
// immutable deployments. The backend is chosen once at process start via
// New; the file store additionally degrades to in-memory for the rest of
// the process if a durable write ever fails. Persistence trouble is logged,
// never returned to the caller.
package selection

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"flex_reviews/internal/domain"
)

type document struct {
	// []any so malformed entries survive unmarshal and get dropped in
	// coerceIDs instead of failing the whole read
	SelectedIDs []any `json:"selectedIds"`
}

// New picks the backend for this process: file-backed when path is writable,
// otherwise in-memory seeded from a one-time best-effort read of the file.
func New(path string) domain.SelectionStore {
	if err := probeWritable(path); err != nil {
		log.Warn().Err(err).Str("path", path).
			Msg("selections file not writable, approvals held in memory for this process")
		return NewMemory(readFileIDs(path))
	}
	return NewFile(path)
}

func probeWritable(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

// readFileIDs is the shared best-effort read: a missing or malformed file
// is an empty set, non-integer entries are dropped silently.
func readFileIDs(path string) []int64 {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	return coerceIDs(doc.SelectedIDs)
}

func coerceIDs(entries []any) []int64 {
	out := make([]int64, 0, len(entries))
	seen := map[int64]bool{}
	for _, e := range entries {
		f, ok := e.(float64)
		if !ok || f != float64(int64(f)) {
			continue
		}
		id := int64(f)
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func applyToggle(cur []int64, id int64, selected bool) []int64 {
	set := make(map[int64]bool, len(cur)+1)
	for _, v := range cur {
		set[v] = true
	}
	if selected {
		set[id] = true
	} else {
		delete(set, id)
	}
	next := make([]int64, 0, len(set))
	for v := range set {
		next = append(next, v)
	}
	sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
	return next
}

// FileStore keeps the approved set in a JSON file. The file is re-read on
// every access so an operator edit between requests is picked up.
type FileStore struct {
	mu   sync.Mutex
	path string

	// after a failed write the file is considered gone for this process
	degraded bool
	mem      []int64
}

func NewFile(path string) *FileStore { return &FileStore{path: path} }

func (s *FileStore) ReadApproved() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64{}, s.current()...)
}

func (s *FileStore) Toggle(id int64, selected bool) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := applyToggle(s.current(), id, selected)

	if !s.degraded {
		if err := s.write(next); err != nil {
			log.Warn().Err(err).Str("path", s.path).
				Msg("selections write failed, falling back to in-memory for this process")
			s.degraded = true
		}
	}
	if s.degraded {
		s.mem = next
	}
	return append([]int64{}, next...)
}

func (s *FileStore) current() []int64 {
	if s.degraded {
		return s.mem
	}
	return readFileIDs(s.path)
}

func (s *FileStore) write(ids []int64) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	out := struct {
		SelectedIDs []int64 `json:"selectedIds"`
	}{SelectedIDs: ids}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o644)
}

// MemoryStore holds the approved set for the lifetime of one process.
// Each instance owns its state, so tests can run independent stores.
type MemoryStore struct {
	mu  sync.Mutex
	ids []int64
}

func NewMemory(seed []int64) *MemoryStore {
	return &MemoryStore{ids: coerceSeed(seed)}
}

func coerceSeed(seed []int64) []int64 {
	seen := map[int64]bool{}
	out := make([]int64, 0, len(seed))
	for _, id := range seed {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *MemoryStore) ReadApproved() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64{}, s.ids...)
}

func (s *MemoryStore) Toggle(id int64, selected bool) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = applyToggle(s.ids, id, selected)
	return append([]int64{}, s.ids...)
}
