package sim

// TankState is the lifecycle state of a storage tank.
type TankState string

const (
	// StateReady means the tank holds certified stock and may be selected
	// for feeding.
	StateReady TankState = "READY"
	// StateFeeding means the tank is the single active refinery feed.
	StateFeeding TankState = "FEEDING"
	// StateEmpty means the tank has no usable volume and awaits a fill.
	StateEmpty TankState = "EMPTY"
	// StateFilling means a cargo is actively discharging into the tank.
	StateFilling TankState = "FILLING"
	// StateFilled is the momentary state between the final fill and the
	// start of settling; both changes carry the same timestamp.
	StateFilled TankState = "FILLED"
	// StateSettling means the tank is waiting out the settling period.
	StateSettling TankState = "SETTLING"
	// StateLab means the tank is under laboratory certification.
	StateLab TankState = "LAB"
	// StateSuspended means a partial fill ended and the tank is waiting for
	// the next slice (or re-selection) after its fill gap.
	StateSuspended TankState = "SUSPENDED"
)

// Tank is the per-tank record. The engine holds all tanks in a central table
// indexed by id; components exchange ids, never pointers across tables.
type Tank struct {
	ID int

	// State is the live state. Point-in-time queries go through the engine's
	// state history instead of this field.
	State TankState

	// Volume is the usable inventory in barrels (gross minus heel). Reports
	// add the heel back for display.
	Volume float64

	// CycleIndex counts completed READY promotions, starting at 1.
	// Cycle-suffixed event names use the value current when the event fires.
	CycleIndex int

	// Timers; zero-value InstantMin / unset is encoded with the set flags.
	SettleEndAt    Instant
	SettleEndSet   bool
	LabStartAt     Instant
	LabStartSet    bool
	ReadyAt        Instant
	ReadyAtSet     bool
	ReadyForFillAt Instant // InstantMin when no preparation gap is pending

	// FeedStartVolume and FeedStartAt are captured on entry to FEEDING and
	// drive the total-draw figure reported when the tank empties.
	FeedStartVolume float64
	FeedStartAt     Instant
	FeedStartSet    bool

	// Mix tracks barrels contributed per crude name across the current
	// cycle; MixPct is frozen when the final fill completes.
	Mix    map[string]float64
	MixPct map[string]float64

	// FirstFillDone distinguishes FILL_START_FIRST from FILL_START within a
	// cycle; it resets when the tank empties.
	FirstFillDone bool

	// InitiallyEmpty marks tanks that started the run empty; they are
	// preferred as the first fill targets.
	InitiallyEmpty bool
}

func newTank(id int) *Tank {
	return &Tank{
		ID:             id,
		State:          StateReady,
		CycleIndex:     1,
		ReadyForFillAt: InstantMin,
		Mix:            make(map[string]float64),
		MixPct:         make(map[string]float64),
	}
}

// clearTimers unsets the settle, lab and ready timers after a promotion.
func (t *Tank) clearTimers() {
	t.SettleEndSet = false
	t.LabStartSet = false
	t.ReadyAtSet = false
}

// addMix records a crude slice flowing into the tank.
func (t *Tank) addMix(crude string, volume float64) {
	t.Mix[crude] += volume
}

// freezeMixPct derives percentage composition from the accumulated mix.
// Called exactly once per cycle, at the final fill's completion.
func (t *Tank) freezeMixPct() {
	total := 0.0
	for _, v := range t.Mix {
		total += v
	}
	if total <= 0 {
		return
	}
	t.MixPct = make(map[string]float64, len(t.Mix))
	for crude, v := range t.Mix {
		t.MixPct[crude] = v / total * 100.0
	}
}

// resetCycle clears fill bookkeeping when the tank empties.
func (t *Tank) resetCycle() {
	t.FirstFillDone = false
	t.Mix = make(map[string]float64)
}
