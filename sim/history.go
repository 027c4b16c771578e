package sim

import "sort"

// stateChange is one entry in the append-only tank state history.
type stateChange struct {
	At    Instant
	State TankState
}

// stateHistory records every tank state change with its exact instant, so
// that point-in-time queries reproduce past states rather than reading live
// ones. Changes are kept per tank, sorted by At with timestamp ties in
// insertion order (later wins); most appends are already in order,
// out-of-order inserts (a fill completing at an end-time earlier in the
// current tick) are placed by binary search.
type stateHistory struct {
	byTank  map[int][]stateChange
	initial map[int]TankState
}

func newStateHistory(initial map[int]TankState) *stateHistory {
	init := make(map[int]TankState, len(initial))
	for tid, s := range initial {
		init[tid] = s
	}
	return &stateHistory{
		byTank:  make(map[int][]stateChange),
		initial: init,
	}
}

// record appends a state change for a tank at the given instant.
func (h *stateHistory) record(at Instant, tank int, state TankState) {
	c := stateChange{At: at, State: state}

	changes := h.byTank[tank]
	n := len(changes)
	if n == 0 || changes[n-1].At <= at {
		h.byTank[tank] = append(changes, c)
		return
	}
	// First index strictly after at; equal timestamps stay before the new
	// entry so later insertion order wins on ties.
	idx := sort.Search(n, func(i int) bool { return changes[i].At > at })
	changes = append(changes, stateChange{})
	copy(changes[idx+1:], changes[idx:])
	changes[idx] = c
	h.byTank[tank] = changes
}

// stateAt returns a tank's state as of ts: the last recorded change with
// At <= ts, or the tank's initial state when none applies. The result is a
// left-continuous step function of ts.
func (h *stateHistory) stateAt(ts Instant, tank int) TankState {
	changes := h.byTank[tank]
	// Last index with At <= ts.
	hi := sort.Search(len(changes), func(i int) bool { return changes[i].At > ts })
	if hi == 0 {
		return h.initial[tank]
	}
	return changes[hi-1].State
}

// statesAt returns the state of every tank as of ts.
func (h *stateHistory) statesAt(ts Instant) map[int]TankState {
	states := make(map[int]TankState, len(h.initial))
	for tid := range h.initial {
		states[tid] = h.stateAt(ts, tid)
	}
	return states
}

// count reports the total number of recorded changes across all tanks.
func (h *stateHistory) count() int {
	total := 0
	for _, changes := range h.byTank {
		total += len(changes)
	}
	return total
}
