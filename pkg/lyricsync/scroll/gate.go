package scroll

import "time"

// GateState is the arbitration state of one scroll surface.
type GateState int

const (
	AutoFollowing GateState = iota
	UserOverridden
)

func (s GateState) String() string {
	switch s {
	case AutoFollowing:
		return "auto-following"
	case UserOverridden:
		return "user-overridden"
	default:
		return "unknown"
	}
}

// Gate decides whether programmatic scrolling may be applied.
// A user scroll suppresses auto-scroll until a quiet period has passed
// without further user scrolls. Gate has no notion of pixels and is not
// safe for concurrent use; the owner serialises calls.
type Gate struct {
	enabled  bool
	quiet    time.Duration
	state    GateState
	resumeAt time.Time
	// gen identifies the most recent deadline. Deferred callbacks carry the
	// generation they were armed with so superseded ones do nothing.
	gen uint64
}

// NewGate returns a gate in the AutoFollowing state.
func NewGate(enabled bool, quiet time.Duration) *Gate {
	return &Gate{enabled: enabled, quiet: quiet}
}

// UserScroll records a user-initiated scroll at now. The resume deadline is
// pushed to now+quiet, replacing any earlier one. The returned generation
// must be passed to ExpireGen by the deferred callback.
func (g *Gate) UserScroll(now time.Time) (deadline time.Time, gen uint64) {
	g.state = UserOverridden
	g.resumeAt = now.Add(g.quiet)
	g.gen++
	return g.resumeAt, g.gen
}

// Expire moves the gate back to AutoFollowing if the deadline has passed.
// It reports whether a transition happened.
func (g *Gate) Expire(now time.Time) bool {
	if g.state != UserOverridden || now.Before(g.resumeAt) {
		return false
	}
	g.state = AutoFollowing
	g.resumeAt = time.Time{}
	return true
}

// ExpireGen is Expire for a deferred callback armed with generation gen.
// A stale generation is ignored.
func (g *Gate) ExpireGen(now time.Time, gen uint64) bool {
	if gen != g.gen {
		return false
	}
	return g.Expire(now)
}

// Resume forces AutoFollowing, as done by an explicit jump to the current
// line. Any pending deadline is invalidated.
func (g *Gate) Resume() {
	g.state = AutoFollowing
	g.resumeAt = time.Time{}
	g.gen++
}

// Allowed reports whether an auto-scroll may be applied at now. It expires
// the override first, so callers that poll instead of arming a timer still
// see the transition.
func (g *Gate) Allowed(now time.Time) bool {
	g.Expire(now)
	return g.enabled && g.state == AutoFollowing
}

// State returns the current state without checking the deadline.
func (g *Gate) State() GateState { return g.state }

// ResumeAt returns the pending deadline, zero when auto-following.
func (g *Gate) ResumeAt() time.Time { return g.resumeAt }

// Enabled reports whether auto-scroll is configured on.
func (g *Gate) Enabled() bool { return g.enabled }
