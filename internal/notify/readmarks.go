package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"vitta/internal/session/store"
)

const readMarksKey = "read_notifications"

// ReadMarks tracks which notification IDs the user has opened. It is plain
// client-side bookkeeping persisted through the same key-value store as the
// session; the backend never sees it.
type ReadMarks struct {
	mu    sync.Mutex
	store store.Store
	ids   map[string]struct{}
}

func LoadReadMarks(st store.Store) (*ReadMarks, error) {
	r := &ReadMarks{store: st, ids: make(map[string]struct{})}
	raw, err := st.Get(readMarksKey)
	if errors.Is(err, store.ErrNotFound) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load read marks: %w", err)
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		// Corrupt marks are not worth failing over; start fresh.
		return r, nil
	}
	for _, id := range ids {
		r.ids[id] = struct{}{}
	}
	return r, nil
}

func (r *ReadMarks) IsRead(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ids[id]
	return ok
}

// MarkRead records the ID and persists the full set. Idempotent: marking an
// already-read notification does not rewrite storage.
func (r *ReadMarks) MarkRead(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ids[id]; ok {
		return nil
	}
	r.ids[id] = struct{}{}
	return r.flushLocked()
}

func (r *ReadMarks) flushLocked() error {
	ids := make([]string, 0, len(r.ids))
	for id := range r.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode read marks: %w", err)
	}
	return r.store.Set(readMarksKey, string(raw))
}
