package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_SolverDispatch_BerthGapEnforced(t *testing.T) {
	// GIVEN a fixed 12h berth gap and two planned cargos (berths alternate)
	cfg := testConfig()
	cfg.InitialLevels = map[int]float64{1: 0, 2: 0}
	cfg.BerthGapHoursMin = 12
	cfg.BerthGapHoursMax = 12
	cfg.SolverPlan = &SolverPlan{Cargos: []SolverCargo{
		{CargoID: 1, Size: 600000, Assignments: []SolverAssignment{{TankID: 1, Volume: 600000}}},
		{CargoID: 2, Size: 600000, Assignments: []SolverAssignment{{TankID: 2, Volume: 600000}}},
	}}
	s := newTestSimulator(t, cfg)

	res := s.Run()

	// THEN no cargo arrives before the gap elapses: each arrival is pinned to
	// its berth's earliest admissible instant, 12h after the run start
	assert.Equal(t, 2, countBaseEvents(res.Events, EventArrival))
	for _, c := range s.cargos {
		assert.Equal(t, s.start.AddHours(12), c.ArrivalAt, "cargo %s", c.VesselName)
		assert.True(t, c.Dispatched)
	}
	arrival, _ := firstEvent(res.Events, EventArrival)
	assert.Equal(t, s.start.AddHours(12), arrival.At)
}

func TestRun_SolverSameBerth_GapAfterPriorDischargeEnd(t *testing.T) {
	// GIVEN a fixed 12h berth gap and three planned cargos. Berths alternate
	// 1, 2, 1, so the first and third cargos share berth 1.
	cfg := testConfig()
	cfg.InitialLevels = map[int]float64{1: 0, 2: 0}
	cfg.BerthGapHoursMin = 12
	cfg.BerthGapHoursMax = 12
	cfg.SolverPlan = &SolverPlan{Cargos: []SolverCargo{
		{CargoID: 1, Size: 600000, Assignments: []SolverAssignment{{TankID: 1, Volume: 600000}}},
		{CargoID: 2, Size: 600000, Assignments: []SolverAssignment{{TankID: 2, Volume: 600000}}},
		{CargoID: 3, Size: 600000, Assignments: []SolverAssignment{{TankID: 1, Volume: 600000}}},
	}}
	s := newTestSimulator(t, cfg)

	s.Run()

	// THEN the first berth-1 cargo discharges 24h-34h (dispatched at the day-1
	// check, one 600k tank at 60k bbl/hr)
	first, third := s.cargos[0], s.cargos[2]
	assert.Equal(t, 1, first.Berth)
	assert.Equal(t, 1, third.Berth)
	if !first.DischargeEndSet {
		t.Fatal("first berth-1 cargo never completed discharge")
	}
	assert.Equal(t, s.start.AddHours(34), first.DischargeEndAt)

	// AND the next cargo at that berth arrives no sooner than 12h after the
	// previous discharge ended, pinned to exactly the gap
	assert.True(t, third.Dispatched)
	assert.Equal(t, first.DischargeEndAt.AddHours(12), third.ArrivalAt)
	assert.GreaterOrEqual(t, first.DischargeEndAt.HoursUntil(third.ArrivalAt), 12.0)
}

func TestRun_StandardMode_FirstCargoWindowAndMinReadyGate(t *testing.T) {
	// GIVEN standard mode with only VLCC enabled, a [1,2] READY window for
	// the first cargo and a 2-tank gate for any later one
	cfg := testConfig()
	cfg.HorizonDays = 2
	cfg.CargoDefs = map[CargoType]float64{CargoVLCC: 600000}
	cfg.FirstCargoMinReady = 1
	cfg.FirstCargoMaxReady = 2
	cfg.MinReadyTanks = 2
	s := newTestSimulator(t, cfg)

	// WHEN the run completes (tank 2 is the lone READY tank at day 0)
	res := s.Run()

	// THEN exactly one cargo is admitted; the READY count never reaches the
	// gate for a second
	assert.Equal(t, 1, countBaseEvents(res.Events, EventArrival))
	if assert.Len(t, s.cargos, 1) {
		c := s.cargos[0]
		assert.Equal(t, "VLCC-V001", c.VesselName)
		assert.Equal(t, CargoVLCC, c.Type)
		assert.InDelta(t, 600000, c.VolumeTotal, 1e-9)
		assert.Equal(t, 1, c.Berth)
	}
	assert.False(t, res.Infeasible)
	assert.Len(t, res.DailySummaries, 2)
}

func TestRun_StandardMode_DisabledTypesNeverPicked(t *testing.T) {
	// GIVEN several types enabled but only HANDY carrying volume
	cfg := testConfig()
	cfg.HorizonDays = 2
	cfg.CargoDefs = map[CargoType]float64{
		CargoVLCC:  0,
		CargoSuez:  0,
		CargoHandy: 300000,
	}
	cfg.FirstCargoMinReady = 0
	cfg.FirstCargoMaxReady = 2
	s := newTestSimulator(t, cfg)

	s.Run()

	for _, c := range s.cargos {
		assert.Equal(t, CargoHandy, c.Type)
	}
	if len(s.cargos) == 0 {
		t.Fatal("expected at least one HANDY cargo to be admitted")
	}
}

func TestRun_CycleSuffix_SecondCycle(t *testing.T) {
	// GIVEN one tank cycled twice: fill, certify, feed dry, fill again.
	// Settling is zero so each cycle completes quickly.
	cfg := testConfig()
	cfg.NumTanks = 1
	cfg.SettlingDays = 0
	cfg.InitialLevels = map[int]float64{1: 0}
	cfg.SolverPlan = &SolverPlan{Cargos: []SolverCargo{
		{CargoID: 1, Size: 600000, Assignments: []SolverAssignment{{TankID: 1, Volume: 600000}}},
		{CargoID: 2, Size: 600000, Assignments: []SolverAssignment{{TankID: 1, Volume: 600000}}},
	}}
	s := newTestSimulator(t, cfg)

	res := s.Run()

	// THEN the second cycle's events carry the _2 suffix
	names := eventNameSet(res.Events)
	for _, want := range []string{
		"FILL_START_FIRST_1", "READY_1",
		"FILL_START_FIRST_2", "READY_2",
	} {
		if !names[want] {
			t.Errorf("event log missing %s", want)
		}
	}
	assert.Equal(t, 3, s.tanks[1].CycleIndex)
	assert.Equal(t, 2, countBaseEvents(res.Events, EventDischargeComplete))
}

func TestRun_StandardMode_DeterministicUnderSeed(t *testing.T) {
	// GIVEN two identical standard-mode runs with the same seed
	mk := func() *Result {
		cfg := testConfig()
		cfg.NumTanks = 3
		cfg.HorizonDays = 3
		cfg.Seed = 7
		cfg.CargoDefs = map[CargoType]float64{CargoVLCC: 600000, CargoSuez: 400000}
		cfg.FirstCargoMinReady = 1
		cfg.FirstCargoMaxReady = 3
		cfg.BerthGapHoursMin = 2
		cfg.BerthGapHoursMax = 10
		s, err := NewSimulator(cfg)
		if err != nil {
			t.Fatalf("NewSimulator: %v", err)
		}
		return s.Run()
	}

	res1 := mk()
	res2 := mk()

	// THEN the event logs are identical row for row
	if !assert.Equal(t, len(res1.Events), len(res2.Events)) {
		return
	}
	for i := range res1.Events {
		a, b := res1.Events[i], res2.Events[i]
		if a.At != b.At || a.Name() != b.Name() || a.Message != b.Message {
			t.Fatalf("event %d diverged: %s %s %q vs %s %s %q",
				i, a.At.Format(), a.Name(), a.Message, b.At.Format(), b.Name(), b.Message)
		}
	}
}
