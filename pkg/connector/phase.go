package connector

// Phase is the canonical job lifecycle vocabulary surfaced to the host
// engine, independent of any backend's own status tokens. A job starts in
// Queued or Running right after submission and moves monotonically toward
// exactly one terminal phase.
type Phase string

const (
	PhaseQueued    Phase = "queued"
	PhaseRunning   Phase = "running"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
	PhaseCancelled Phase = "cancelled"
	// PhaseUndefined is the fallback for backend tokens that no status
	// table maps. It is non-terminal so the host engine keeps polling.
	PhaseUndefined Phase = "undefined"
)

// IsTerminal reports whether the phase is final. Terminal phases never
// transition again.
func (p Phase) IsTerminal() bool {
	switch p {
	case PhaseSucceeded, PhaseFailed, PhaseCancelled:
		return true
	}
	return false
}
