// Package state holds the per-window toggle rows and the focused window.
package state

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/1broseidon/wintoggle/internal/platform"
)

// focusHistoryLimit bounds how many previously focused windows are kept for
// seeding new windows.
const focusHistoryLimit = 16

// Row holds one active flag per toggle definition, aligned by position.
type Row []bool

// NewRow returns an all-inactive row of length n.
func NewRow(n int) Row {
	return make(Row, n)
}

// Clone returns an independent copy.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Resized returns a copy of r with length n, padding with inactive flags.
func (r Row) Resized(n int) Row {
	out := make(Row, n)
	copy(out, r)
	return out
}

// ActiveCount counts true positions.
func (r Row) ActiveCount() int {
	n := 0
	for _, v := range r {
		if v {
			n++
		}
	}
	return n
}

// Table maps window IDs to rows and tracks the focused window. All methods
// hand out copies, so callers never share a row with the table.
type Table struct {
	mu       sync.RWMutex
	rows     map[platform.WindowID]Row
	current  platform.WindowID
	history  []platform.WindowID // most recent first
	rowWidth int
}

// NewTable creates an empty table whose default rows have width n.
func NewTable(n int) *Table {
	return &Table{
		rows:     make(map[platform.WindowID]Row),
		rowWidth: n,
	}
}

// Row returns a copy of the row for id.
func (t *Table) Row(id platform.WindowID) (Row, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	if !ok {
		return nil, false
	}
	return row.Clone(), true
}

// Has reports whether id has a row.
func (t *Table) Has(id platform.WindowID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.rows[id]
	return ok
}

// seedLocked returns the row a new window starts from: a copy of the most
// recently focused other window's row, or an all-inactive row.
func (t *Table) seedLocked(id platform.WindowID) (Row, bool) {
	for _, prev := range t.history {
		if prev == id {
			continue
		}
		if row, ok := t.rows[prev]; ok {
			return row.Resized(t.rowWidth), true
		}
	}
	return NewRow(t.rowWidth), false
}

// Create inserts a seeded row for id unless one exists, in which case the
// existing row is returned untouched. It reports whether a new row was cloned
// from another window.
func (t *Table) Create(id platform.WindowID) (Row, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if row, ok := t.rows[id]; ok {
		return row.Clone(), false
	}
	row, cloned := t.seedLocked(id)
	t.rows[id] = row
	return row.Clone(), cloned
}

// EnsureDefault inserts an all-inactive row for id unless one exists. It
// reports whether a row was created.
func (t *Table) EnsureDefault(id platform.WindowID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; ok {
		return false
	}
	t.rows[id] = NewRow(t.rowWidth)
	return true
}

// Update runs fn on a copy of id's row and stores the result only when fn
// succeeds. The table lock is held for the whole read-modify-write.
func (t *Table) Update(id platform.WindowID, fn func(Row) (Row, error)) (Row, error) {
	return t.UpdatePersisted(id, fn, nil)
}

// UpdatePersisted is Update with a persist step: after fn succeeds, persist
// receives the table as it will look with the new row. The row is committed
// only when persist succeeds too.
func (t *Table) UpdatePersisted(id platform.WindowID, fn func(Row) (Row, error), persist func(Snapshot) error) (Row, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, ok := t.rows[id]
	if !ok {
		return nil, fmt.Errorf("window %d has no toggle state", id)
	}
	next, err := fn(row.Resized(t.rowWidth))
	if err != nil {
		return nil, err
	}
	if len(next) != t.rowWidth {
		return nil, fmt.Errorf("row width %d does not match %d toggles", len(next), t.rowWidth)
	}
	if persist != nil {
		snap := t.snapshotLocked()
		snap.PerWindow[id] = next.Clone()
		if err := persist(snap); err != nil {
			return nil, err
		}
	}
	t.rows[id] = next.Clone()
	return next.Clone(), nil
}

// Remove deletes id's row and forgets it in the focus history.
func (t *Table) Remove(id platform.WindowID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.rows[id]
	delete(t.rows, id)
	t.history = removeID(t.history, id)
	if t.current == id {
		t.current = platform.NoWindow
	}
	return ok
}

// SetCurrent records id as the focused window.
func (t *Table) SetCurrent(id platform.WindowID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current = id
	t.history = append([]platform.WindowID{id}, removeID(t.history, id)...)
	if len(t.history) > focusHistoryLimit {
		t.history = t.history[:focusHistoryLimit]
	}
}

// Current returns the last focused window.
func (t *Table) Current() (platform.WindowID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current, t.current != platform.NoWindow
}

// Resize changes the width of every row to n. New positions start inactive.
func (t *Table) Resize(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rowWidth = n
	for id, row := range t.rows {
		if len(row) != n {
			t.rows[id] = row.Resized(n)
		}
	}
}

// IDs returns tracked window IDs in ascending order.
func (t *Table) IDs() []platform.WindowID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]platform.WindowID, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of tracked windows.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

func removeID(ids []platform.WindowID, id platform.WindowID) []platform.WindowID {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Snapshot is the serialized form of a table.
type Snapshot struct {
	PerWindow map[platform.WindowID]Row `json:"per_window_toggles"`
	Current   platform.WindowID         `json:"current_windowId"`
}

// Snapshot copies the table's contents.
func (t *Table) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshotLocked()
}

func (t *Table) snapshotLocked() Snapshot {
	snap := Snapshot{
		PerWindow: make(map[platform.WindowID]Row, len(t.rows)),
		Current:   t.current,
	}
	for id, row := range t.rows {
		snap.PerWindow[id] = row.Clone()
	}
	return snap
}

// Restore replaces the table's rows with snap, resizing them to the table
// width. The focus history restarts from snap.Current.
func (t *Table) Restore(snap Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rows = make(map[platform.WindowID]Row, len(snap.PerWindow))
	for id, row := range snap.PerWindow {
		if id == platform.NoWindow {
			continue
		}
		t.rows[id] = row.Resized(t.rowWidth)
	}
	t.history = nil
	t.current = platform.NoWindow
	if _, ok := t.rows[snap.Current]; ok {
		t.current = snap.Current
		t.history = []platform.WindowID{snap.Current}
	}
}

// Encode serializes a snapshot.
func (s Snapshot) Encode() (json.RawMessage, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode window state: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses an encoded snapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode window state: %w", err)
	}
	if snap.PerWindow == nil {
		snap.PerWindow = make(map[platform.WindowID]Row)
	}
	return snap, nil
}
