// Package toggle implements the guarded state machine that cycles a resolved
// server through its three display states.
//
// The display model is derived, never stored:
//
//	red    = configured off
//	green  = configured on, not paused
//	orange = configured on but present in the runtime-disable list (paused)
//
// Toggling cycles red → green → orange → red. Guards are asymmetric on
// purpose: a blocked or restricted server may always be force-disabled (a
// safety valve) but never re-enabled or paused into a state that keeps it
// on, and enterprise-managed servers cannot be modified at all.
package toggle

import (
	"github.com/henkisdabro/mcpsel/internal/resolver"
)

// DisplayState is the derived red/green/orange classification.
type DisplayState string

const (
	// Red: configured off.
	Red DisplayState = "red"
	// Green: configured on, runtime not stopped.
	Green DisplayState = "green"
	// Orange: configured on but paused.
	Orange DisplayState = "orange"
)

// Guard failure reasons. These are values, not errors: a refused toggle is a
// normal, explainable outcome.
const (
	ReasonEnterprise = "enterprise-managed servers cannot be modified"
	ReasonBlocked    = "server is blocked by enterprise policy"
	ReasonRestricted = "server is not on the enterprise allowlist and cannot be turned on"
)

// Result reports the outcome of a toggle operation. Failures are always
// typed values with a reason; toggle operations never return errors.
type Result struct {
	Success  bool
	NewState DisplayState
	Reason   string
}

// GetDisplayState derives the display state from a server's configured state
// and runtime status.
func GetDisplayState(s *resolver.Server) DisplayState {
	if s.State == resolver.StateOff {
		return Red
	}
	if s.Runtime == resolver.RuntimeStopped {
		return Orange
	}
	return Green
}

// NextState advances one step along the red → green → orange → red cycle.
func NextState(d DisplayState) DisplayState {
	switch d {
	case Red:
		return Green
	case Green:
		return Orange
	default:
		return Red
	}
}

// ApplyToggle sets the server's (state, runtime) pair for the target display
// state. It is a pure transform with no guard checks; callers validate
// first.
func ApplyToggle(s *resolver.Server, target DisplayState) {
	switch target {
	case Red:
		s.State = resolver.StateOff
		s.Runtime = resolver.RuntimeUnknown
	case Green:
		s.State = resolver.StateOn
		s.Runtime = resolver.RuntimeUnknown
	case Orange:
		s.State = resolver.StateOn
		s.Runtime = resolver.RuntimeStopped
	}
}

// validate checks whether the server may transition to the target display
// state. Moving to red (disable) is permitted for blocked and restricted
// servers; only enterprise-managed servers refuse it.
func validate(s *resolver.Server, target DisplayState) (string, bool) {
	if s.Flags.Enterprise {
		return ReasonEnterprise, false
	}
	if target == Red {
		return "", true
	}
	// Target keeps the server on (green or orange).
	if s.Flags.Blocked {
		return ReasonBlocked, false
	}
	if s.Flags.Restricted && s.State == resolver.StateOff {
		return ReasonRestricted, false
	}
	return "", true
}

// transition validates and applies a move to the target display state.
func transition(s *resolver.Server, target DisplayState) Result {
	if reason, ok := validate(s, target); !ok {
		return Result{Success: false, Reason: reason}
	}
	ApplyToggle(s, target)
	return Result{Success: true, NewState: target}
}

// Toggle advances the server one step along the cycle, re-validating the
// resulting transition under the same guards as the targeted operation
// (cycling into green is equivalent to Enable).
func Toggle(s *resolver.Server) Result {
	return transition(s, NextState(GetDisplayState(s)))
}

// Enable moves the server to green.
func Enable(s *resolver.Server) Result {
	return transition(s, Green)
}

// Disable moves the server to red. This is the safety valve: it succeeds for
// blocked and restricted servers, refusing only enterprise-managed ones.
func Disable(s *resolver.Server) Result {
	return transition(s, Red)
}

// Pause moves the server to orange.
func Pause(s *resolver.Server) Result {
	return transition(s, Orange)
}

// EnableAll applies Enable to each server independently, leaving any server
// whose guard fails unchanged. Partial success is expected; the batch itself
// never fails.
func EnableAll(servers []*resolver.Server) map[string]Result {
	results := make(map[string]Result, len(servers))
	for _, s := range servers {
		results[s.Name] = Enable(s)
	}
	return results
}

// DisableAll applies Disable to each server independently.
func DisableAll(servers []*resolver.Server) map[string]Result {
	results := make(map[string]Result, len(servers))
	for _, s := range servers {
		results[s.Name] = Disable(s)
	}
	return results
}
