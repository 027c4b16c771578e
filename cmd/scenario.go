package cmd

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	sim "github.com/tankfarm-sim/tankfarm-sim/sim"
)

// startLayout is the scenario-file datetime format, e.g. "2026-01-01T06:00".
const startLayout = "2006-01-02T15:04"

// Scenario is the on-disk YAML form of a full run configuration, including
// the optional solver plan. All fields must be listed: the decoder runs with
// KnownFields(true) so typos fail loudly instead of silently defaulting.
type Scenario struct {
	ProcessingRate float64 `yaml:"processing_rate"`
	NumTanks       int     `yaml:"num_tanks"`
	Start          string  `yaml:"start"`
	HorizonDays    float64 `yaml:"horizon_days"`

	UsablePerTank float64 `yaml:"usable_per_tank"`
	DeadBottom    float64 `yaml:"dead_bottom"`
	BufferVolume  float64 `yaml:"buffer_volume"`

	InitialTankLevels map[int]float64 `yaml:"initial_tank_levels"`

	SettlingDays  float64 `yaml:"settling_days"`
	LabHours      float64 `yaml:"lab_hours"`
	DischargeRate float64 `yaml:"discharge_rate"`

	SnapshotIntervalMinutes int `yaml:"snapshot_interval_minutes"`

	MinReadyTanks      int `yaml:"min_ready_tanks"`
	FirstCargoMinReady int `yaml:"first_cargo_min_ready"`
	FirstCargoMaxReady int `yaml:"first_cargo_max_ready"`

	TankGapHours     float64 `yaml:"tank_gap_hours"`
	TankFillGapHours float64 `yaml:"tank_fill_gap_hours"`
	BerthGapHoursMin float64 `yaml:"berth_gap_hours_min"`
	BerthGapHoursMax float64 `yaml:"berth_gap_hours_max"`
	PreDischargeDays float64 `yaml:"pre_discharge_days"`

	CargoDefs map[string]float64 `yaml:"cargo_defs"`

	SolverPlan *ScenarioSolverPlan `yaml:"solver_plan"`

	Seed int64 `yaml:"seed"`
}

// ScenarioSolverPlan mirrors sim.SolverPlan in YAML form.
type ScenarioSolverPlan struct {
	Cargos []ScenarioSolverCargo `yaml:"cargos"`
}

type ScenarioSolverCargo struct {
	CargoID     int                        `yaml:"cargo_id"`
	VesselName  string                     `yaml:"vessel_name"`
	Type        string                     `yaml:"type"`
	CrudeName   string                     `yaml:"crude_name"`
	Size        float64                    `yaml:"size"`
	Assignments []ScenarioSolverAssignment `yaml:"assignments"`
}

type ScenarioSolverAssignment struct {
	TankID    int     `yaml:"tank_id"`
	Volume    float64 `yaml:"volume"`
	CrudeName string  `yaml:"crude_name"`
}

// LoadScenario reads and strictly decodes a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario file %s: %w", path, err)
	}
	return &sc, nil
}

// Config converts the scenario into the engine configuration. Validation
// proper happens in sim.NewSimulator; this only translates shapes.
func (sc *Scenario) Config() (sim.Config, error) {
	var start time.Time
	if sc.Start != "" {
		var err error
		start, err = time.Parse(startLayout, sc.Start)
		if err != nil {
			return sim.Config{}, fmt.Errorf("parse start %q (want %s): %w", sc.Start, startLayout, err)
		}
	}

	cargoDefs := make(map[sim.CargoType]float64, len(sc.CargoDefs))
	for ct, vol := range sc.CargoDefs {
		cargoDefs[sim.CargoType(ct)] = vol
	}

	cfg := sim.Config{
		ProcessingRate:          sc.ProcessingRate,
		NumTanks:                sc.NumTanks,
		Start:                   start,
		HorizonDays:             sc.HorizonDays,
		UsablePerTank:           sc.UsablePerTank,
		DeadBottom:              sc.DeadBottom,
		BufferVolume:            sc.BufferVolume,
		InitialLevels:           sc.InitialTankLevels,
		SettlingDays:            sc.SettlingDays,
		LabHours:                sc.LabHours,
		DischargeRate:           sc.DischargeRate,
		SnapshotIntervalMinutes: sc.SnapshotIntervalMinutes,
		MinReadyTanks:           sc.MinReadyTanks,
		FirstCargoMinReady:      sc.FirstCargoMinReady,
		FirstCargoMaxReady:      sc.FirstCargoMaxReady,
		TankGapHours:            sc.TankGapHours,
		TankFillGapHours:        sc.TankFillGapHours,
		BerthGapHoursMin:        sc.BerthGapHoursMin,
		BerthGapHoursMax:        sc.BerthGapHoursMax,
		PreDischargeDays:        sc.PreDischargeDays,
		CargoDefs:               cargoDefs,
		Seed:                    sc.Seed,
	}

	if sc.SolverPlan != nil {
		plan := &sim.SolverPlan{}
		for _, c := range sc.SolverPlan.Cargos {
			assigns := make([]sim.SolverAssignment, 0, len(c.Assignments))
			for _, a := range c.Assignments {
				assigns = append(assigns, sim.SolverAssignment{
					TankID:    a.TankID,
					Volume:    a.Volume,
					CrudeName: a.CrudeName,
				})
			}
			plan.Cargos = append(plan.Cargos, sim.SolverCargo{
				CargoID:     c.CargoID,
				VesselName:  c.VesselName,
				Type:        sim.CargoType(c.Type),
				CrudeName:   c.CrudeName,
				Size:        c.Size,
				Assignments: assigns,
			})
		}
		cfg.SolverPlan = plan
	}
	return cfg, nil
}
