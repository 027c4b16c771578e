package sim

import (
	"sort"
	"strconv"
	"strings"
)

// Level classifies an event row.
type Level string

const (
	LevelInfo    Level = "Info"
	LevelSuccess Level = "Success"
	LevelWarning Level = "Warning"
	LevelDanger  Level = "Danger"
)

// Canonical event names. The strings are part of the external contract.
const (
	EventSimStart          = "SIM_START"
	EventConfig            = "CONFIG"
	EventSolverInit        = "SOLVER_INIT"
	EventFeedStart         = "FEED_START"
	EventArrival           = "ARRIVAL"
	EventFillStart         = "FILL_START"
	EventFillStartFirst    = "FILL_START_FIRST"
	EventFillEnd           = "FILL_END"
	EventFillFinalEnd      = "FILL_FINAL_END"
	EventSettlingStart     = "SETTLING_START"
	EventSettlingEnd       = "SETTLING_END"
	EventReady             = "READY"
	EventTankEmpty         = "TANK_EMPTY"
	EventEmptyStart        = "EMPTY_START"
	EventFeedChangeover    = "FEED_CHANGEOVER"
	EventTankGapStart      = "TANK_GAP_START"
	EventDischargeComplete = "DISCHARGE_COMPLETE"
	EventFeedError         = "FEED_ERROR"
	EventProcessingHalt    = "PROCESSING_HALT"
	EventProcessingResume  = "PROCESSING_RESUME"
	EventDailyStatus       = "DAILY_STATUS"
	EventDailyEnd          = "DAILY_END"
)

// cycleEvents get a _<cycle> suffix when the tank's cycle is known.
var cycleEvents = map[string]bool{
	EventFillStartFirst: true,
	EventFillFinalEnd:   true,
	EventSettlingStart:  true,
	EventSettlingEnd:    true,
	EventReady:          true,
}

// Event is one row of the canonical event log. The base name and cycle index
// are stored separately; Name renders the suffixed form, so renaming is a
// pure function of the record.
type Event struct {
	At      Instant
	Level   Level
	Event   string // base event name
	Cycle   int    // 0 = no suffix
	Tank    int    // 0 = no tank
	Cargo   string // vessel name; empty when not cargo-related
	Message string

	// TankStates is the per-tank state snapshot at At, derived from the
	// state history — not the live states — so rows logged for past
	// instants reproduce past states.
	TankStates map[int]TankState
}

// Name returns the event name with the cycle suffix applied.
func (e *Event) Name() string {
	if e.Cycle > 0 {
		return e.Event + "_" + strconv.Itoa(e.Cycle)
	}
	return e.Event
}

// Snapshot is one row of the periodic tank inventory stream.
type Snapshot struct {
	At      Instant
	Volumes map[int]float64 // usable bbl per tank
	States  map[int]TankState
}

// recorder accumulates the event log and the snapshot stream.
type recorder struct {
	events    []Event
	snapshots []Snapshot

	history  *stateHistory
	numTanks int
	cycleOf  func(tank int) int
}

func newRecorder(history *stateHistory, numTanks int, cycleOf func(tank int) int) *recorder {
	return &recorder{
		history:  history,
		numTanks: numTanks,
		cycleOf:  cycleOf,
	}
}

// log appends an event row, attaching the tank's current cycle index for
// cycle-tracked event names and the history-derived state snapshot at ts.
func (r *recorder) log(ts Instant, level Level, event string, tank int, cargo string, message string) {
	cycle := 0
	if cycleEvents[event] && tank > 0 {
		cycle = r.cycleOf(tank)
	}
	r.events = append(r.events, Event{
		At:         ts,
		Level:      level,
		Event:      event,
		Cycle:      cycle,
		Tank:       tank,
		Cargo:      cargo,
		Message:    message,
		TankStates: r.history.statesAt(ts),
	})
}

// snapshot appends a full inventory row at ts.
func (r *recorder) snapshot(ts Instant, volumes map[int]float64, states map[int]TankState) {
	vols := make(map[int]float64, len(volumes))
	for tid, v := range volumes {
		vols[tid] = v
	}
	sts := make(map[int]TankState, len(states))
	for tid, s := range states {
		sts[tid] = s
	}
	r.snapshots = append(r.snapshots, Snapshot{At: ts, Volumes: vols, States: sts})
}

// sortChronologically orders the event log by timestamp; rows sharing a
// timestamp keep insertion order (phase order within a tick).
func (r *recorder) sortChronologically() {
	sort.SliceStable(r.events, func(i, j int) bool {
		return r.events[i].At < r.events[j].At
	})
}

// FormatBBL renders a barrel quantity with thousands separators and no
// decimals, matching the report formatting.
func FormatBBL(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	whole := strconv.FormatFloat(v, 'f', 0, 64)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	return b.String()
}

// mixString renders a crude percentage map as "A: 60.0%, B: 40.0%" with a
// deterministic crude order; "Unknown" when the mix is empty.
func mixString(pct map[string]float64) string {
	if len(pct) == 0 {
		return "Unknown"
	}
	crudes := make([]string, 0, len(pct))
	for crude := range pct {
		crudes = append(crudes, crude)
	}
	sort.Strings(crudes)
	parts := make([]string, 0, len(crudes))
	for _, crude := range crudes {
		parts = append(parts, crude+": "+strconv.FormatFloat(pct[crude], 'f', 1, 64)+"%")
	}
	return strings.Join(parts, ", ")
}
