package toggle

import (
	"testing"

	"github.com/henkisdabro/mcpsel/internal/resolver"
)

func serverIn(d DisplayState) *resolver.Server {
	s := &resolver.Server{Name: "test"}
	ApplyToggle(s, d)
	return s
}

func TestGetDisplayState(t *testing.T) {
	tests := []struct {
		name    string
		state   resolver.State
		runtime resolver.Runtime
		want    DisplayState
	}{
		{"off is red", resolver.StateOff, resolver.RuntimeUnknown, Red},
		{"off stays red even if stopped", resolver.StateOff, resolver.RuntimeStopped, Red},
		{"on unknown is green", resolver.StateOn, resolver.RuntimeUnknown, Green},
		{"on running is green", resolver.StateOn, resolver.RuntimeRunning, Green},
		{"on stopped is orange", resolver.StateOn, resolver.RuntimeStopped, Orange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &resolver.Server{State: tt.state, Runtime: tt.runtime}
			if got := GetDisplayState(s); got != tt.want {
				t.Errorf("GetDisplayState(%s, %s) = %s, want %s", tt.state, tt.runtime, got, tt.want)
			}
		})
	}
}

func TestNextStateCycleCloses(t *testing.T) {
	// Three steps from any state must return to the starting point.
	for _, start := range []DisplayState{Red, Green, Orange} {
		got := NextState(NextState(NextState(start)))
		if got != start {
			t.Errorf("three NextState steps from %s = %s, want %s", start, got, start)
		}
	}
}

func TestNextStateOrder(t *testing.T) {
	if NextState(Red) != Green {
		t.Error("NextState(Red) != Green")
	}
	if NextState(Green) != Orange {
		t.Error("NextState(Green) != Orange")
	}
	if NextState(Orange) != Red {
		t.Error("NextState(Orange) != Red")
	}
}

func TestApplyToggleRoundTrip(t *testing.T) {
	// GetDisplayState(ApplyToggle(s, d)) == d for every display state.
	for _, d := range []DisplayState{Red, Green, Orange} {
		s := &resolver.Server{State: resolver.StateOn, Runtime: resolver.RuntimeRunning}
		ApplyToggle(s, d)
		if got := GetDisplayState(s); got != d {
			t.Errorf("GetDisplayState after ApplyToggle(%s) = %s, want %s", d, got, d)
		}
	}
}

func TestToggleCycle(t *testing.T) {
	s := serverIn(Red)

	steps := []DisplayState{Green, Orange, Red, Green}
	for i, want := range steps {
		result := Toggle(s)
		if !result.Success {
			t.Fatalf("step %d: Toggle failed: %s", i, result.Reason)
		}
		if result.NewState != want {
			t.Fatalf("step %d: NewState = %s, want %s", i, result.NewState, want)
		}
		if got := GetDisplayState(s); got != want {
			t.Fatalf("step %d: server display state = %s, want %s", i, got, want)
		}
	}
}

func TestGuards(t *testing.T) {
	tests := []struct {
		name       string
		start      DisplayState
		flags      resolver.Flags
		target     DisplayState
		wantOK     bool
		wantReason string
	}{
		{
			name:       "enterprise refuses enable",
			start:      Red,
			flags:      resolver.Flags{Enterprise: true},
			target:     Green,
			wantReason: ReasonEnterprise,
		},
		{
			name:       "enterprise refuses disable",
			start:      Green,
			flags:      resolver.Flags{Enterprise: true},
			target:     Red,
			wantReason: ReasonEnterprise,
		},
		{
			name:       "enterprise refuses pause",
			start:      Green,
			flags:      resolver.Flags{Enterprise: true},
			target:     Orange,
			wantReason: ReasonEnterprise,
		},
		{
			name:       "blocked refuses enable",
			start:      Red,
			flags:      resolver.Flags{Blocked: true},
			target:     Green,
			wantReason: ReasonBlocked,
		},
		{
			name:   "blocked may disable",
			start:  Green,
			flags:  resolver.Flags{Blocked: true},
			target: Red,
			wantOK: true,
		},
		{
			name:       "blocked refuses pause",
			start:      Green,
			flags:      resolver.Flags{Blocked: true},
			target:     Orange,
			wantReason: ReasonBlocked,
		},
		{
			name:       "restricted and off refuses enable",
			start:      Red,
			flags:      resolver.Flags{Restricted: true},
			target:     Green,
			wantReason: ReasonRestricted,
		},
		{
			name:   "restricted and on may pause",
			start:  Green,
			flags:  resolver.Flags{Restricted: true},
			target: Orange,
			wantOK: true,
		},
		{
			name:   "restricted may disable",
			start:  Green,
			flags:  resolver.Flags{Restricted: true},
			target: Red,
			wantOK: true,
		},
		{
			name:   "restricted and off may disable",
			start:  Red,
			flags:  resolver.Flags{Restricted: true},
			target: Red,
			wantOK: true,
		},
		{
			name:   "unflagged allows everything",
			start:  Red,
			target: Green,
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := serverIn(tt.start)
			s.Flags = tt.flags
			before := *s

			result := transition(s, tt.target)
			if result.Success != tt.wantOK {
				t.Fatalf("transition to %s: Success = %v, want %v (reason %q)",
					tt.target, result.Success, tt.wantOK, result.Reason)
			}
			if !tt.wantOK {
				if result.Reason != tt.wantReason {
					t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
				}
				// A refused transition must not mutate the server.
				if *s != before {
					t.Errorf("refused transition mutated the server: %+v -> %+v", before, *s)
				}
			}
		})
	}
}

func TestToggleFromGreenWithBlockedFlag(t *testing.T) {
	// A blocked server sitting on (from a pre-policy config) cycles
	// green -> orange, which keeps it on, so the guard must refuse.
	s := serverIn(Green)
	s.Flags.Blocked = true

	result := Toggle(s)
	if result.Success {
		t.Fatal("Toggle succeeded, want guard refusal")
	}
	if result.Reason != ReasonBlocked {
		t.Errorf("Reason = %q, want %q", result.Reason, ReasonBlocked)
	}
}

func TestEnableDisablePause(t *testing.T) {
	s := serverIn(Red)

	if result := Enable(s); !result.Success || GetDisplayState(s) != Green {
		t.Fatalf("Enable: result = %+v, state = %s", result, GetDisplayState(s))
	}
	if result := Pause(s); !result.Success || GetDisplayState(s) != Orange {
		t.Fatalf("Pause: result = %+v, state = %s", result, GetDisplayState(s))
	}
	if result := Disable(s); !result.Success || GetDisplayState(s) != Red {
		t.Fatalf("Disable: result = %+v, state = %s", result, GetDisplayState(s))
	}
}

func TestEnableAllPartialSuccess(t *testing.T) {
	servers := []*resolver.Server{
		serverIn(Red),
		serverIn(Red),
		serverIn(Red),
	}
	servers[0].Name = "ok"
	servers[1].Name = "blocked"
	servers[1].Flags.Blocked = true
	servers[2].Name = "enterprise"
	servers[2].Flags.Enterprise = true

	results := EnableAll(servers)
	if len(results) != 3 {
		t.Fatalf("EnableAll returned %d results, want 3", len(results))
	}
	if !results["ok"].Success {
		t.Error("ok: EnableAll failed, want success")
	}
	if results["blocked"].Success {
		t.Error("blocked: EnableAll succeeded, want refusal")
	}
	if results["enterprise"].Success {
		t.Error("enterprise: EnableAll succeeded, want refusal")
	}
	if GetDisplayState(servers[0]) != Green {
		t.Errorf("ok server state = %s, want green", GetDisplayState(servers[0]))
	}
	if GetDisplayState(servers[1]) != Red {
		t.Errorf("blocked server state = %s, want red", GetDisplayState(servers[1]))
	}
}

func TestDisableAllIsSafetyValve(t *testing.T) {
	servers := []*resolver.Server{
		serverIn(Green),
		serverIn(Orange),
	}
	servers[0].Name = "blocked"
	servers[0].Flags.Blocked = true
	servers[1].Name = "restricted"
	servers[1].Flags.Restricted = true

	results := DisableAll(servers)
	for name, result := range results {
		if !result.Success {
			t.Errorf("%s: DisableAll refused: %s", name, result.Reason)
		}
	}
	for _, s := range servers {
		if GetDisplayState(s) != Red {
			t.Errorf("%s: state = %s, want red", s.Name, GetDisplayState(s))
		}
	}
}
