package ingest

// Phase is the orchestrator's run state. Phases only move forward.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSeeding
	PhaseDiscovering
	PhaseDispatching
	PhaseDraining
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSeeding:
		return "seeding"
	case PhaseDiscovering:
		return "discovering"
	case PhaseDispatching:
		return "dispatching"
	case PhaseDraining:
		return "draining"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}
