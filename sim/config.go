package sim

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"time"
)

// ErrConfigInvalid is wrapped by every configuration validation failure.
// Callers check with errors.Is; a run never starts on an invalid config.
var ErrConfigInvalid = errors.New("invalid configuration")

// Config holds every knob for a single run. It is immutable once handed to
// NewSimulator; there is no mid-run reconfiguration.
type Config struct {
	ProcessingRate float64   // refinery intake, bbl/day (must be > 0)
	NumTanks       int       // tank count, ids 1..NumTanks (must be > 0)
	Start          time.Time // simulation start
	HorizonDays    float64   // run length in days (must be > 0)

	UsablePerTank float64 // usable capacity per tank, bbl (must be > 0)
	DeadBottom    float64 // unpumpable heel per tank, bbl
	BufferVolume  float64 // operational buffer per tank, bbl

	// InitialLevels maps tank id to its starting gross volume. Missing ids
	// default to a full tank. Construction normalizes gross to usable
	// (gross minus dead_bottom + buffer/2) and marks zero-usable tanks EMPTY.
	InitialLevels map[int]float64

	SettlingDays  float64 // settling duration after a full fill, days
	LabHours      float64 // lab testing duration after settling, hours (0 skips LAB)
	DischargeRate float64 // marine discharge rate, bbl/hr (must be > 0)

	SnapshotIntervalMinutes int // tick size and snapshot cadence (default 30)

	MinReadyTanks      int // READY-tank gate for admitting subsequent cargos
	FirstCargoMinReady int // READY-tank window for the first cargo (default 8)
	FirstCargoMaxReady int // (default 9)

	TankGapHours     float64 // preparation after a tank empties before refill
	TankFillGapHours float64 // wait after a partial fill before the next slice
	BerthGapHoursMin float64 // random inter-arrival gap bounds per berth
	BerthGapHoursMax float64 // (max must be >= min >= 0)
	PreDischargeDays float64 // delay between arrival and first discharge

	// CargoDefs maps cargo type to its nominal volume; types with zero
	// volume are disabled. Ignored when a solver plan is present.
	CargoDefs map[CargoType]float64

	// SolverPlan, when non-nil, switches the run to solver mode: cargos and
	// their tank assignments are pre-computed and the scheduler only decides
	// dispatch timing.
	SolverPlan *SolverPlan

	// Seed for the partitioned RNG. Zero means "derive from config hash".
	Seed int64
}

// UnusablePerTank is the implicit non-usable heel kept in every tank.
func (c *Config) UnusablePerTank() float64 {
	return c.DeadBottom + c.BufferVolume/2.0
}

// RatePerHour is the fixed hourly processing rate.
func (c *Config) RatePerHour() float64 {
	return c.ProcessingRate / 24.0
}

// SettlingHours is the settling duration in hours.
func (c *Config) SettlingHours() float64 {
	return c.SettlingDays * 24.0
}

// FillDelayHours is the pre-discharge delay in hours.
func (c *Config) FillDelayHours() float64 {
	return c.PreDischargeDays * 24.0
}

func configErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfigInvalid, fmt.Sprintf(format, args...))
}

// Validate rejects bad configurations before construction. Every returned
// error wraps ErrConfigInvalid.
func (c *Config) Validate() error {
	if c.ProcessingRate <= 0 {
		return configErr("processing rate must be positive, got %v", c.ProcessingRate)
	}
	if c.NumTanks <= 0 {
		return configErr("number of tanks must be greater than zero, got %d", c.NumTanks)
	}
	if c.Start.IsZero() {
		return configErr("start datetime is required")
	}
	if c.HorizonDays <= 0 {
		return configErr("horizon must be positive, got %v days", c.HorizonDays)
	}
	if c.UsablePerTank <= 0 {
		return configErr("usable volume per tank must be positive, got %v", c.UsablePerTank)
	}
	if c.DeadBottom < 0 || c.BufferVolume < 0 {
		return configErr("dead bottom and buffer volume must be non-negative")
	}
	if c.SettlingDays < 0 {
		return configErr("settling days must be non-negative, got %v", c.SettlingDays)
	}
	if c.LabHours < 0 {
		return configErr("lab hours must be non-negative, got %v", c.LabHours)
	}
	if c.DischargeRate <= 0 {
		return configErr("discharge rate must be positive, got %v", c.DischargeRate)
	}
	if c.SnapshotIntervalMinutes <= 0 {
		return configErr("snapshot interval must be positive, got %d minutes", c.SnapshotIntervalMinutes)
	}
	if c.MinReadyTanks < 0 {
		return configErr("minimum ready tanks must be non-negative, got %d", c.MinReadyTanks)
	}
	if c.FirstCargoMinReady < 0 || c.FirstCargoMaxReady < c.FirstCargoMinReady {
		return configErr("first-cargo ready window [%d, %d] is malformed", c.FirstCargoMinReady, c.FirstCargoMaxReady)
	}
	if c.TankGapHours < 0 || c.TankFillGapHours < 0 {
		return configErr("tank gap hours must be non-negative")
	}
	if c.BerthGapHoursMin < 0 || c.BerthGapHoursMax < c.BerthGapHoursMin {
		return configErr("berth gap bounds [%v, %v] are malformed", c.BerthGapHoursMin, c.BerthGapHoursMax)
	}
	if c.PreDischargeDays < 0 {
		return configErr("pre-discharge days must be non-negative, got %v", c.PreDischargeDays)
	}
	grossCapacity := c.UsablePerTank + c.UnusablePerTank()
	for tid, level := range c.InitialLevels {
		if tid < 1 || tid > c.NumTanks {
			return configErr("initial level given for unknown tank %d", tid)
		}
		if level < 0 {
			return configErr("initial level for tank %d must be non-negative, got %v", tid, level)
		}
		if level > grossCapacity {
			return configErr("initial level for tank %d exceeds gross capacity %v, got %v", tid, grossCapacity, level)
		}
	}
	for ct, vol := range c.CargoDefs {
		if !ct.Valid() {
			return configErr("unknown cargo type %q", ct)
		}
		if vol < 0 {
			return configErr("cargo volume for %s must be non-negative, got %v", ct, vol)
		}
	}
	if c.SolverPlan != nil {
		if err := c.SolverPlan.Validate(c.NumTanks); err != nil {
			return err
		}
	}
	return nil
}

// applyDefaults fills zero-valued knobs that have non-zero defaults.
func (c *Config) applyDefaults() {
	if c.SnapshotIntervalMinutes == 0 {
		c.SnapshotIntervalMinutes = 30
	}
	if c.FirstCargoMinReady == 0 && c.FirstCargoMaxReady == 0 {
		c.FirstCargoMinReady = 8
		c.FirstCargoMaxReady = 9
	}
}

// EffectiveSeed returns the explicit seed, or a seed derived from a canonical
// rendering of the config when none was given. Two identical configs always
// derive the same seed, so default runs are reproducible.
func (c *Config) EffectiveSeed() int64 {
	if c.Seed != 0 {
		return c.Seed
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "rate=%v|tanks=%d|start=%d|horizon=%v|usable=%v|dead=%v|buf=%v|settle=%v|lab=%v|discharge=%v|snap=%d|minready=%d|first=%d-%d|tankgap=%v|fillgap=%v|berthgap=%v-%v|predis=%v",
		c.ProcessingRate, c.NumTanks, c.Start.Unix(), c.HorizonDays,
		c.UsablePerTank, c.DeadBottom, c.BufferVolume,
		c.SettlingDays, c.LabHours, c.DischargeRate,
		c.SnapshotIntervalMinutes, c.MinReadyTanks,
		c.FirstCargoMinReady, c.FirstCargoMaxReady,
		c.TankGapHours, c.TankFillGapHours,
		c.BerthGapHoursMin, c.BerthGapHoursMax, c.PreDischargeDays)

	types := make([]string, 0, len(c.CargoDefs))
	for ct := range c.CargoDefs {
		types = append(types, string(ct))
	}
	sort.Strings(types)
	for _, ct := range types {
		fmt.Fprintf(h, "|cargo.%s=%v", ct, c.CargoDefs[CargoType(ct)])
	}
	return int64(h.Sum64())
}
