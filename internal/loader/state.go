package loader

import (
	"fmt"

	"github.com/dorian305/3D-Model-Viewer/internal/scene"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseProbing
	PhaseLoading
	PhaseLoaded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseProbing:
		return "probing"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// State is a snapshot of the loader. Object is set only when Loaded, Err
// only when Failed.
type State struct {
	Phase  Phase
	File   string
	Loaded int64
	Total  int64
	Object *scene.Object
	Err    error
}

// Done reports whether the state is terminal.
func (s State) Done() bool {
	return s.Phase == PhaseLoaded || s.Phase == PhaseFailed
}

// Percent is the loaded share in [0, 100], or -1 when the size is unknown.
func (s State) Percent() float64 {
	if s.Total <= 0 {
		return -1
	}
	return float64(s.Loaded) / float64(s.Total) * 100
}

func (s State) String() string {
	switch s.Phase {
	case PhaseLoading:
		if p := s.Percent(); p >= 0 {
			return fmt.Sprintf("%g%% loaded...", p)
		}
		return fmt.Sprintf("%d bytes loaded...", s.Loaded)
	case PhaseFailed:
		return "Error occured: " + s.Err.Error()
	default:
		return s.Phase.String()
	}
}

// LoadError is a Failed reason.
type LoadError struct {
	File   string
	Format Format
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.File, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
