package sim

import (
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"
)

// Simulator is the core object that holds simulation time, the entity tables
// (tanks, cargos, berths, active fills) and the step driver. It is
// single-threaded and deterministic under a fixed seed.
type Simulator struct {
	cfg Config

	start   Instant
	horizon Instant

	// Derived quantities, fixed for the run.
	rateHour       float64
	usable         float64
	unusable       float64
	settleHours    float64
	labHours       float64
	fillDelayHours float64

	// Central entity tables. Components exchange integer ids and vessel
	// names; there is no cross-table pointer graph.
	tanks  []*Tank // index 1..NumTanks; index 0 unused
	berths map[int]*Berth
	cargos []*Cargo
	// activeFills holds at most one in-flight slice per vessel name.
	activeFills map[string]activeFill

	history *stateHistory
	rec     *recorder
	rng     *PartitionedRNG

	// active is the id of the single FEEDING tank, 0 when processing is
	// halted.
	active int
	halted bool

	solverMode bool
	plan       *SolverPlan

	cargoCounter        map[CargoType]int
	firstCargoScheduled bool

	dailyConsumption map[int]float64
	dailySummaries   []DailySummary

	infeasible       bool
	infeasibleReason string
}

// Result bundles the four output streams plus the terminal run status. The
// engine emits structured records; the caller persists them.
type Result struct {
	Events         []Event
	DailySummaries []DailySummary
	CargoRows      []CargoRow
	Snapshots      []Snapshot

	Infeasible       bool
	InfeasibleReason string
}

// NewSimulator validates the config and builds a ready-to-run engine.
// Invalid configs are rejected here with ErrConfigInvalid; nothing is
// partially constructed.
func NewSimulator(cfg Config) (*Simulator, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulator{
		cfg:            cfg,
		start:          InstantOf(cfg.Start),
		rateHour:       cfg.RatePerHour(),
		usable:         cfg.UsablePerTank,
		unusable:       cfg.UnusablePerTank(),
		settleHours:    cfg.SettlingHours(),
		labHours:       cfg.LabHours,
		fillDelayHours: cfg.FillDelayHours(),
		berths: map[int]*Berth{
			1: {ID: 1},
			2: {ID: 2},
		},
		activeFills:      make(map[string]activeFill),
		rng:              NewPartitionedRNG(NewSimulationKey(cfg.EffectiveSeed())),
		cargoCounter:     make(map[CargoType]int),
		dailyConsumption: make(map[int]float64),
		solverMode:       cfg.SolverPlan != nil,
		plan:             cfg.SolverPlan,
	}
	s.horizon = s.start.AddDays(cfg.HorizonDays)
	s.berths[1].FreeAt = s.start
	s.berths[2].FreeAt = s.start

	// Tanks start at their configured gross level, normalized to usable.
	// Zero-usable tanks begin the run EMPTY and are preferred fill targets.
	initialStates := make(map[int]TankState, cfg.NumTanks)
	s.tanks = make([]*Tank, cfg.NumTanks+1)
	for tid := 1; tid <= cfg.NumTanks; tid++ {
		t := newTank(tid)
		gross := s.usable + s.unusable
		if level, ok := cfg.InitialLevels[tid]; ok {
			gross = level
		}
		t.Volume = math.Max(0, gross-s.unusable)
		if t.Volume <= 0 {
			t.State = StateEmpty
			t.InitiallyEmpty = true
		}
		s.tanks[tid] = t
		initialStates[tid] = t.State
	}

	s.history = newStateHistory(initialStates)
	s.rec = newRecorder(s.history, cfg.NumTanks, func(tank int) int {
		return s.tanks[tank].CycleIndex
	})

	// Initial feeding tank: first READY tank scanning from 1, seated before
	// the opening log row so the first row already shows it FEEDING. When no
	// tank has usable volume the run opens halted and the first tick logs it.
	first := s.findNextReadySequential(0)
	if first != 0 {
		s.active = first
		t := s.tanks[first]
		s.changeState(first, StateFeeding, s.start)
		t.Volume = math.Min(t.Volume, s.usable)
		t.FeedStartVolume = t.Volume
		t.FeedStartAt = s.start
		t.FeedStartSet = true
	}

	s.rec.log(s.start, LevelInfo, EventSimStart, 0, "",
		fmt.Sprintf("Simulation started with processing rate: %s bbl/day", FormatBBL(cfg.ProcessingRate)))
	if first != 0 {
		s.rec.log(s.start, LevelInfo, EventFeedStart, first, "",
			fmt.Sprintf("Initial feeding starts from Tank %d", first))
	}

	s.rec.log(s.start, LevelInfo, EventConfig, 0, "",
		fmt.Sprintf("CONFIG: usable_per_tank=%v, dead_bottom=%v, buffer_volume=%v, unusable=%v",
			s.usable, cfg.DeadBottom, cfg.BufferVolume, s.unusable))

	if s.solverMode {
		s.loadSolverCargos()
		s.rec.log(s.start, LevelInfo, EventSolverInit, 0, "",
			fmt.Sprintf("Solver plan loaded: %d cargos with fixed tank assignments", len(s.plan.Cargos)))
	}

	return s, nil
}

// loadSolverCargos pre-populates the cargo table from the plan. All solver
// cargos start undispatched with a provisional arrival at the run start;
// the scheduler fixes the real arrival when the berth admits them. Berths
// alternate 1, 2, 1, ... in plan order.
func (s *Simulator) loadSolverCargos() {
	berthID := 1
	for _, sc := range s.plan.Cargos {
		vessel := sc.VesselName
		if vessel == "" {
			vessel = fmt.Sprintf("SOLVER-%d", sc.CargoID)
		}
		ctype := sc.Type
		if ctype == "" {
			ctype = CargoUnknown
		}
		crude := sc.CrudeName
		if crude == "" {
			crude = "Unknown"
		}
		s.cargos = append(s.cargos, &Cargo{
			VesselName:      vessel,
			Type:            ctype,
			CrudeType:       crude,
			Berth:           berthID,
			SolverID:        sc.CargoID,
			VolumeTotal:     sc.Size,
			RemainingVolume: sc.Size,
			ArrivalAt:       s.start,
			FillStartAt:     s.start.AddHours(s.fillDelayHours),
		})
		if berthID == 1 {
			berthID = 2
		} else {
			berthID = 1
		}
	}
}

// changeState updates a tank's live state and records the change at its
// exact instant in the history.
func (s *Simulator) changeState(tank int, state TankState, at Instant) {
	s.tanks[tank].State = state
	s.history.record(at, tank, state)
}

func (s *Simulator) countState(state TankState) int {
	n := 0
	for tid := 1; tid <= s.cfg.NumTanks; tid++ {
		if s.tanks[tid].State == state {
			n++
		}
	}
	return n
}

// Run executes the full horizon and returns the output streams. The driver
// terminates only when the clock reaches the horizon, or earlier when the
// run turns structurally infeasible.
func (s *Simulator) Run() *Result {
	maxDays := int(math.Ceil(s.cfg.HorizonDays))
	for d := 0; d < maxDays; d++ {
		dayStart := s.start.AddDays(float64(d))
		if dayStart >= s.horizon {
			break
		}
		s.simulateDay(d)
		if s.infeasible {
			logrus.Warnf("run infeasible after day %d: %s", d+1, s.infeasibleReason)
			break
		}
	}
	return s.result()
}

// simulateDay runs one day of the horizon: opening status, cargo scheduling,
// the inner tick loop, and the closing daily summary.
func (s *Simulator) simulateDay(dayIndex int) {
	dayStart := s.start.AddDays(float64(dayIndex))
	dayEnd := minInstant(dayStart.AddDays(1), s.horizon)

	s.promote(dayStart)

	for tid := 1; tid <= s.cfg.NumTanks; tid++ {
		s.dailyConsumption[tid] = 0
	}

	openingCertified, trueOpening := s.logDailyStatus(dayIndex, dayStart)

	s.scheduleCargos(dayStart)

	totalProcessed := 0.0
	now := dayStart
	nextSnapshot := dayStart
	for now < dayEnd {
		if now >= s.horizon {
			break
		}
		if now >= nextSnapshot {
			s.takeSnapshot(now)
			nextSnapshot = nextSnapshot.AddMinutes(s.cfg.SnapshotIntervalMinutes)
		}

		// Fixed phase order within a tick: promote, complete fills, ensure
		// feeding, start fills, consume. Promote/complete re-run after
		// consumption so a tank emptying mid-step is observed within the
		// same tick.
		s.promote(now)
		s.finishFills(now)
		s.ensureFeeding(now)
		s.startFills(now)

		stepEnd := minInstant(dayEnd, now.AddMinutes(s.cfg.SnapshotIntervalMinutes))
		if stepEnd > s.horizon {
			stepEnd = s.horizon
		}
		if now >= stepEnd {
			break
		}
		totalProcessed += s.consume(now, stepEnd)
		now = stepEnd

		s.finishFills(now)
		s.promote(now)
	}

	s.closeDay(dayStart, dayEnd, now, openingCertified, trueOpening, totalProcessed)
	s.checkInfeasible(now)
}

// logDailyStatus emits the day-opening status event and returns the opening
// certified and gross stock figures for the daily summary.
func (s *Simulator) logDailyStatus(dayIndex int, dayStart Instant) (certified, trueOpening float64) {
	readyCount := s.countState(StateReady)

	var readyStock, feedingStock float64
	var readyDetail, emptyDetail, feedingDetail []string
	for tid := 1; tid <= s.cfg.NumTanks; tid++ {
		t := s.tanks[tid]
		switch t.State {
		case StateReady:
			readyStock += t.Volume
			if dayIndex == 0 {
				readyDetail = append(readyDetail, fmt.Sprintf("Tank%d: %s", tid, FormatBBL(t.Volume)))
			}
		case StateEmpty:
			if dayIndex == 0 {
				emptyDetail = append(emptyDetail, fmt.Sprintf("Tank%d: %s", tid, FormatBBL(t.Volume)))
			}
		case StateFeeding:
			feedingStock += t.Volume
			feedingDetail = append(feedingDetail, fmt.Sprintf("Tank %d: %s bbl", tid, FormatBBL(t.Volume)))
		}
		trueOpening += t.Volume
	}
	certified = readyStock + feedingStock

	feedingStr := "None"
	if len(feedingDetail) > 0 {
		feedingStr = strings.Join(feedingDetail, ", ")
	}

	if dayIndex == 0 {
		readyStr := ""
		if len(readyDetail) > 0 {
			readyStr = fmt.Sprintf(" [%s]", strings.Join(readyDetail, ", "))
		}
		emptyStr := ""
		if len(emptyDetail) > 0 {
			emptyStr = fmt.Sprintf(", EMPTY: [%s]", strings.Join(emptyDetail, ", "))
		}
		s.rec.log(dayStart, LevelInfo, EventDailyStatus, 0, "",
			fmt.Sprintf("Day starts - STOCK: READY TANKS (%d): %s bbl%s%s, FEEDING TANKS: %s, TOTAL: %s bbl",
				readyCount, FormatBBL(readyStock), readyStr, emptyStr, feedingStr, FormatBBL(certified)))
	} else {
		s.rec.log(dayStart, LevelInfo, EventDailyStatus, 0, "",
			fmt.Sprintf("Day starts - STOCK: READY TANKS (%d): %s bbl, FEEDING TANKS: %s, TOTAL: %s bbl",
				readyCount, FormatBBL(readyStock), feedingStr, FormatBBL(certified)))
	}
	return certified, trueOpening
}

// closeDay emits the day-end event and appends the daily summary row.
func (s *Simulator) closeDay(dayStart, dayEnd, now Instant, openingCertified, trueOpening, processed float64) {
	trueClosing := 0.0
	for tid := 1; tid <= s.cfg.NumTanks; tid++ {
		trueClosing += s.tanks[tid].Volume
	}

	var feedingDay []string
	for tid := 1; tid <= s.cfg.NumTanks; tid++ {
		if s.dailyConsumption[tid] > 0 {
			feedingDay = append(feedingDay, fmt.Sprintf("Tank %d: %s bbl", tid, FormatBBL(s.dailyConsumption[tid])))
		}
	}
	feedingStr := "None"
	if len(feedingDay) > 0 {
		feedingStr = strings.Join(feedingDay, ", ")
	}

	logAt := now
	if now >= dayEnd {
		logAt = dayEnd.AddMinutes(-1)
	}
	readyEnd := s.countState(StateReady)
	s.rec.log(logAt, LevelInfo, EventDailyEnd, 0, "",
		fmt.Sprintf("Day ends with %d READY tanks, FEEDING tank(s): %s, Processed: %s bbl",
			readyEnd, feedingStr, FormatBBL(processed)))

	states := make(map[int]TankState, s.cfg.NumTanks)
	for tid := 1; tid <= s.cfg.NumTanks; tid++ {
		states[tid] = s.tanks[tid].State
	}
	s.dailySummaries = append(s.dailySummaries, DailySummary{
		Date:               dayStart,
		OpeningStock:       trueOpening,
		OpeningCertified:   openingCertified,
		OpeningUncertified: trueOpening - openingCertified,
		Processed:          processed,
		ClosingStock:       trueClosing,
		ReadyTanks:         readyEnd,
		EmptyTanks:         s.countState(StateEmpty),
		TankStates:         states,
	})
}

// checkInfeasible detects the structurally-stuck standard-mode run: halted
// with no enabled cargo types, nothing left to discharge, and no fill in
// flight. Starvation alone is transient and never fatal.
func (s *Simulator) checkInfeasible(now Instant) {
	if !s.halted || s.infeasible || s.solverMode {
		return
	}
	for _, vol := range s.cfg.CargoDefs {
		if vol > 0 {
			return
		}
	}
	if len(s.activeFills) > 0 {
		return
	}
	for _, c := range s.cargos {
		if c.RemainingVolume > 1.0 {
			return
		}
	}
	s.infeasible = true
	s.infeasibleReason = fmt.Sprintf(
		"processing halted at %s with no enabled cargo types and no inbound volume", now.Format())
}

// takeSnapshot records the live per-tank usable volume and state.
func (s *Simulator) takeSnapshot(now Instant) {
	volumes := make(map[int]float64, s.cfg.NumTanks)
	states := make(map[int]TankState, s.cfg.NumTanks)
	for tid := 1; tid <= s.cfg.NumTanks; tid++ {
		volumes[tid] = s.tanks[tid].Volume
		states[tid] = s.tanks[tid].State
	}
	s.rec.snapshot(now, volumes, states)
}

// promote advances tanks through SETTLING -> LAB -> READY when their timers
// elapse. Transitions fire when the clock passes the timer, but carry the
// exact computed instant; same-instant chains are ordered by insertion, so
// the latest recorded state wins point-in-time queries.
func (s *Simulator) promote(now Instant) int {
	newlyReady := 0
	for tid := 1; tid <= s.cfg.NumTanks; tid++ {
		t := s.tanks[tid]
		switch {
		case t.State == StateSettling && t.SettleEndSet && t.SettleEndAt <= now:
			settleEnd := t.SettleEndAt
			if s.labHours > 0 && t.LabStartSet && t.LabStartAt <= now {
				t.SettleEndSet = false
				labEnd := "Unknown"
				if t.ReadyAtSet {
					labEnd = t.ReadyAt.FormatShort()
				}
				s.rec.log(settleEnd, LevelInfo, EventSettlingEnd, tid, "",
					fmt.Sprintf("Settling ends. Lab testing starts for %.0f hours (ready at %s)", s.labHours, labEnd))
				s.changeState(tid, StateLab, settleEnd)
			} else if s.labHours <= 0 && t.ReadyAtSet && t.ReadyAt <= now {
				readyAt := t.ReadyAt
				t.Volume = s.usable
				t.clearTimers()
				s.rec.log(settleEnd, LevelInfo, EventSettlingEnd, tid, "", "Settling ends")
				s.rec.log(readyAt, LevelSuccess, EventReady, tid, "",
					fmt.Sprintf("Tank %d now READY - Mix: [%s]", tid, mixString(t.MixPct)))
				s.changeState(tid, StateReady, readyAt)
				t.CycleIndex++
				newlyReady++
			}
		case t.State == StateLab && t.ReadyAtSet && t.ReadyAt <= now:
			readyAt := t.ReadyAt
			t.Volume = s.usable
			t.clearTimers()
			s.rec.log(readyAt, LevelSuccess, EventReady, tid, "",
				fmt.Sprintf("Tank %d now READY - Mix: [%s]", tid, mixString(t.MixPct)))
			s.changeState(tid, StateReady, readyAt)
			t.CycleIndex++
			newlyReady++
		}
	}
	return newlyReady
}

// result finalizes and returns the output streams. The event log is stably
// sorted by timestamp; ties keep insertion order.
func (s *Simulator) result() *Result {
	s.rec.sortChronologically()
	return &Result{
		Events:           s.rec.events,
		DailySummaries:   s.dailySummaries,
		CargoRows:        s.buildCargoReport(),
		Snapshots:        s.rec.snapshots,
		Infeasible:       s.infeasible,
		InfeasibleReason: s.infeasibleReason,
	}
}

// StateAt answers the point-in-time query: each tank's state as of ts,
// reconstructed from the history.
func (s *Simulator) StateAt(ts Instant) map[int]TankState {
	return s.history.statesAt(ts)
}
