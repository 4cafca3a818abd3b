// Package hotkey implements C4: the chord-to-command binding table and
// the coalesced-rebuild bookkeeping around the native global event tap.
// The tap itself (actually registering a system-wide key combination) is
// an OS binding out of scope for this package (§1 "Out of scope"); Tap
// is the narrow interface a platform-specific implementation plugs in,
// the same shape internal/platform gives the window system boundary.
package hotkey

import (
	"fmt"
	"sort"
	"sync"
)

// Table is the chord -> command-verb map exposed by the bind/unbind/
// list-bindings IPC commands. It is safe for concurrent use, though in
// practice only the core loop thread calls it.
type Table struct {
	mu       sync.Mutex
	bindings map[string]string
	dirty    bool
}

// NewTable returns an empty binding table.
func NewTable() *Table {
	return &Table{bindings: make(map[string]string)}
}

// Bind installs or replaces chord's command, marking the table dirty so
// the next timer tick rebuilds the native tap (§5 "Cancellation /
// timeouts": rebuilds are deferred via a dirty flag and coalesced).
func (t *Table) Bind(chord, command string) error {
	if chord == "" {
		return fmt.Errorf("hotkey: empty chord")
	}
	if command == "" {
		return fmt.Errorf("hotkey: empty command for chord %q", chord)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bindings[chord] = command
	t.dirty = true
	return nil
}

// Unbind removes chord, if bound. Unbinding an unknown chord is a
// validation failure per §7, not a silent no-op.
func (t *Table) Unbind(chord string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.bindings[chord]; !ok {
		return fmt.Errorf("hotkey: chord %q is not bound", chord)
	}
	delete(t.bindings, chord)
	t.dirty = true
	return nil
}

// Lookup resolves a chord reported by the tap to its bound command.
func (t *Table) Lookup(chord string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cmd, ok := t.bindings[chord]
	return cmd, ok
}

// List returns a snapshot copy of every current binding (list-bindings).
func (t *Table) List() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]string, len(t.bindings))
	for k, v := range t.bindings {
		out[k] = v
	}
	return out
}

// Chords returns every bound chord, sorted, for deterministic tap
// rebuilds.
func (t *Table) Chords() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.bindings))
	for chord := range t.bindings {
		out = append(out, chord)
	}
	sort.Strings(out)
	return out
}

// TakeDirty reports whether the table has changed since the last call
// and clears the flag, so a caller (the timer tick) rebuilds the tap at
// most once per batch of binds/unbinds.
func (t *Table) TakeDirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	d := t.dirty
	t.dirty = false
	return d
}
