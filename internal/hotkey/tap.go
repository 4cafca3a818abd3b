package hotkey

// Tap is the native global event tap boundary. Installing and
// uninstalling a system-wide key-combination listener is an OS binding
// out of scope for this daemon (§1); a platform-specific build plugs a
// real implementation in here, the same way internal/platform separates
// the window-system boundary from the core that uses it.
type Tap interface {
	// Rebuild replaces the set of chords the tap is currently watching
	// for with exactly chords, installing or removing OS-level
	// registrations as needed.
	Rebuild(chords []string) error

	// Events is the wake source the core loop selects on: one matched
	// chord string per key-press the tap recognizes.
	Events() <-chan string

	// Close uninstalls the tap entirely.
	Close() error
}

// NoopTap is a Tap that never matches anything. It is the default used
// where no platform-specific tap is wired in (tests, and any build
// without the native binding), so the core loop always has a valid,
// closeable Events channel to select on.
type NoopTap struct {
	events chan string
}

// NewNoopTap returns a Tap whose Events channel never fires.
func NewNoopTap() *NoopTap {
	return &NoopTap{events: make(chan string)}
}

func (t *NoopTap) Rebuild(chords []string) error { return nil }
func (t *NoopTap) Events() <-chan string         { return t.events }
func (t *NoopTap) Close() error                  { return nil }
