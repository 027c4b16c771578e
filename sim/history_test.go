package sim

import "testing"

func TestStateHistory_NoChanges_ReturnsInitial(t *testing.T) {
	// GIVEN a history with only initial states
	h := newStateHistory(map[int]TankState{1: StateReady, 2: StateEmpty})

	// THEN any query returns the initial states
	if got := h.stateAt(1000, 1); got != StateReady {
		t.Errorf("tank 1: got %s, want READY", got)
	}
	if got := h.stateAt(1000, 2); got != StateEmpty {
		t.Errorf("tank 2: got %s, want EMPTY", got)
	}
}

func TestStateHistory_StateAt_LeftContinuous(t *testing.T) {
	// GIVEN a tank that changed state at t=100 and t=200
	h := newStateHistory(map[int]TankState{1: StateReady})
	h.record(100, 1, StateFeeding)
	h.record(200, 1, StateEmpty)

	// THEN the query is a step function: last change with At <= ts
	tests := []struct {
		ts   Instant
		want TankState
	}{
		{99, StateReady},
		{100, StateFeeding},
		{150, StateFeeding},
		{199, StateFeeding},
		{200, StateEmpty},
		{5000, StateEmpty},
	}
	for _, tt := range tests {
		if got := h.stateAt(tt.ts, 1); got != tt.want {
			t.Errorf("stateAt(%d): got %s, want %s", tt.ts, got, tt.want)
		}
	}
}

func TestStateHistory_OutOfOrderInsert_Placed(t *testing.T) {
	// GIVEN a change recorded for a past instant (a fill completing at an
	// end-time earlier in the current tick)
	h := newStateHistory(map[int]TankState{1: StateEmpty})
	h.record(300, 1, StateSettling)
	h.record(100, 1, StateFilling)

	// THEN queries between the two see the earlier change
	if got := h.stateAt(200, 1); got != StateFilling {
		t.Errorf("stateAt(200): got %s, want FILLING", got)
	}
	if got := h.stateAt(300, 1); got != StateSettling {
		t.Errorf("stateAt(300): got %s, want SETTLING", got)
	}
	if got := h.stateAt(50, 1); got != StateEmpty {
		t.Errorf("stateAt(50): got %s, want EMPTY", got)
	}
}

func TestStateHistory_SameInstant_LaterInsertionWins(t *testing.T) {
	// GIVEN two changes at the same instant (FILLED then SETTLING at a fill
	// completion)
	h := newStateHistory(map[int]TankState{1: StateFilling})
	h.record(500, 1, StateFilled)
	h.record(500, 1, StateSettling)

	// THEN the later-recorded change is what the query sees
	if got := h.stateAt(500, 1); got != StateSettling {
		t.Errorf("stateAt(500): got %s, want SETTLING", got)
	}
}

func TestStateHistory_StatesAt_CoversAllTanks(t *testing.T) {
	h := newStateHistory(map[int]TankState{1: StateReady, 2: StateReady, 3: StateEmpty})
	h.record(100, 2, StateFeeding)

	got := h.statesAt(150)
	if len(got) != 3 {
		t.Fatalf("statesAt: got %d tanks, want 3", len(got))
	}
	if got[1] != StateReady || got[2] != StateFeeding || got[3] != StateEmpty {
		t.Errorf("statesAt(150) = %v", got)
	}
}

func TestStateHistory_Count(t *testing.T) {
	h := newStateHistory(map[int]TankState{1: StateReady, 2: StateReady})
	h.record(10, 1, StateFeeding)
	h.record(20, 2, StateFeeding)
	h.record(30, 1, StateEmpty)

	if got := h.count(); got != 3 {
		t.Errorf("count: got %d, want 3", got)
	}
}
