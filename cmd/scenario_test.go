package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sim "github.com/tankfarm-sim/tankfarm-sim/sim"
)

func writeTempScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	return path
}

const fullScenarioYAML = `
processing_rate: 600000
num_tanks: 4
start: "2026-01-01T06:00"
horizon_days: 30
usable_per_tank: 589750
dead_bottom: 10000
buffer_volume: 500
initial_tank_levels:
  1: 300000
  2: 0
settling_days: 1
lab_hours: 24
discharge_rate: 50000
snapshot_interval_minutes: 30
min_ready_tanks: 2
tank_gap_hours: 5
tank_fill_gap_hours: 6
berth_gap_hours_min: 12
berth_gap_hours_max: 36
pre_discharge_days: 0.5
cargo_defs:
  VLCC: 2000000
  SUEZ: 1000000
solver_plan:
  cargos:
    - cargo_id: 1
      vessel_name: ALPHA
      type: VLCC
      crude_name: Basrah
      size: 1200000
      assignments:
        - tank_id: 1
          volume: 600000
          crude_name: Basrah
        - tank_id: 2
          volume: 600000
seed: 42
`

func TestLoadScenario_FullFile(t *testing.T) {
	// GIVEN a complete scenario file
	path := writeTempScenario(t, fullScenarioYAML)

	// WHEN it is loaded and converted
	sc, err := LoadScenario(path)
	require.NoError(t, err)
	cfg, err := sc.Config()
	require.NoError(t, err)

	// THEN every knob lands in the engine config
	assert.Equal(t, 600000.0, cfg.ProcessingRate)
	assert.Equal(t, 4, cfg.NumTanks)
	assert.Equal(t, time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC), cfg.Start)
	assert.Equal(t, 30.0, cfg.HorizonDays)
	assert.Equal(t, 589750.0, cfg.UsablePerTank)
	assert.Equal(t, 10000.0, cfg.DeadBottom)
	assert.Equal(t, 500.0, cfg.BufferVolume)
	assert.Equal(t, map[int]float64{1: 300000, 2: 0}, cfg.InitialLevels)
	assert.Equal(t, 1.0, cfg.SettlingDays)
	assert.Equal(t, 24.0, cfg.LabHours)
	assert.Equal(t, 50000.0, cfg.DischargeRate)
	assert.Equal(t, 30, cfg.SnapshotIntervalMinutes)
	assert.Equal(t, 2, cfg.MinReadyTanks)
	assert.Equal(t, 5.0, cfg.TankGapHours)
	assert.Equal(t, 6.0, cfg.TankFillGapHours)
	assert.Equal(t, 12.0, cfg.BerthGapHoursMin)
	assert.Equal(t, 36.0, cfg.BerthGapHoursMax)
	assert.Equal(t, 0.5, cfg.PreDischargeDays)
	assert.Equal(t, 2000000.0, cfg.CargoDefs[sim.CargoVLCC])
	assert.Equal(t, 1000000.0, cfg.CargoDefs[sim.CargoSuez])
	assert.Equal(t, int64(42), cfg.Seed)

	// AND the solver plan converts shape for shape
	require.NotNil(t, cfg.SolverPlan)
	require.Len(t, cfg.SolverPlan.Cargos, 1)
	cargo := cfg.SolverPlan.Cargos[0]
	assert.Equal(t, 1, cargo.CargoID)
	assert.Equal(t, "ALPHA", cargo.VesselName)
	assert.Equal(t, sim.CargoVLCC, cargo.Type)
	assert.Equal(t, "Basrah", cargo.CrudeName)
	assert.Equal(t, 1200000.0, cargo.Size)
	require.Len(t, cargo.Assignments, 2)
	assert.Equal(t, 1, cargo.Assignments[0].TankID)
	assert.Equal(t, 600000.0, cargo.Assignments[0].Volume)
	assert.Equal(t, "Basrah", cargo.Assignments[0].CrudeName)
	assert.Equal(t, "", cargo.Assignments[1].CrudeName)
}

func TestLoadScenario_UnknownFieldRejected(t *testing.T) {
	// GIVEN a scenario with a typo in a field name
	path := writeTempScenario(t, "procesing_rate: 600000\nnum_tanks: 4\n")

	// THEN strict decoding refuses it instead of silently defaulting
	_, err := LoadScenario(path)
	assert.Error(t, err)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestScenario_Config_BadStartRejected(t *testing.T) {
	path := writeTempScenario(t, "num_tanks: 4\nstart: \"01/01/2026\"\n")
	sc, err := LoadScenario(path)
	require.NoError(t, err)

	_, err = sc.Config()
	assert.Error(t, err)
}

func TestScenario_Config_NoSolverPlanStaysNil(t *testing.T) {
	path := writeTempScenario(t, "num_tanks: 4\nprocessing_rate: 1\n")
	sc, err := LoadScenario(path)
	require.NoError(t, err)

	cfg, err := sc.Config()
	require.NoError(t, err)
	assert.Nil(t, cfg.SolverPlan)
	assert.True(t, cfg.Start.IsZero())
}
