package sim

// SolverPlan is a pre-computed schedule from an external optimizer: the full
// cargo list plus, per cargo, an ordered list of (tank, volume, crude)
// assignments. The engine never re-optimizes; the plan only biases fill
// target selection, it never forces a start.
type SolverPlan struct {
	Cargos []SolverCargo
}

// SolverCargo is one planned cargo arrival.
type SolverCargo struct {
	CargoID    int
	VesselName string    // defaults to SOLVER-<id> when empty
	Type       CargoType // defaults to UNKNOWN when empty
	CrudeName  string    // defaults to Unknown when empty
	Size       float64   // total volume, bbl

	// Assignments are walked in order; the first actionable one wins.
	Assignments []SolverAssignment
}

// SolverAssignment pins a slice of the cargo to a specific tank.
type SolverAssignment struct {
	TankID    int
	Volume    float64 // planned barrels for this tank
	CrudeName string  // defaults to the cargo's crude when empty

	// Filled accumulates the barrels already discharged against this
	// assignment. It is the plan's only mutable field.
	Filled float64
}

// Remaining is the undischarged portion of the assignment.
func (a *SolverAssignment) Remaining() float64 {
	return a.Volume - a.Filled
}

// Validate checks the structural invariants of the plan: known tanks,
// positive sizes, and per-cargo planned volume not exceeding the cargo total.
// Errors wrap ErrConfigInvalid; a bad plan aborts before construction.
func (p *SolverPlan) Validate(numTanks int) error {
	if len(p.Cargos) == 0 {
		return configErr("solver plan has no cargos")
	}
	for _, sc := range p.Cargos {
		if sc.Size <= 0 {
			return configErr("solver cargo %d has non-positive size %v", sc.CargoID, sc.Size)
		}
		planned := 0.0
		for _, a := range sc.Assignments {
			if a.TankID < 1 || a.TankID > numTanks {
				return configErr("solver cargo %d assigns unknown tank %d", sc.CargoID, a.TankID)
			}
			if a.Volume < 0 {
				return configErr("solver cargo %d has negative assignment volume for tank %d", sc.CargoID, a.TankID)
			}
			if a.Filled > a.Volume {
				return configErr("solver cargo %d tank %d: filled %v exceeds planned %v", sc.CargoID, a.TankID, a.Filled, a.Volume)
			}
			planned += a.Volume
		}
		if planned > sc.Size+1.0 {
			return configErr("solver cargo %d plans %v bbl but carries only %v", sc.CargoID, planned, sc.Size)
		}
	}
	return nil
}

// assignmentCount reports how many assignments the plan holds for a cargo.
// A planned cargo with no assignments falls back to sequential tank picks.
func (p *SolverPlan) assignmentCount(cargoID int) int {
	for i := range p.Cargos {
		if p.Cargos[i].CargoID == cargoID {
			return len(p.Cargos[i].Assignments)
		}
	}
	return 0
}

// solverTarget is an actionable assignment picked for a cargo at an instant.
type solverTarget struct {
	assignment *SolverAssignment
	tank       int
	remaining  float64 // assignment remainder at pick time
}

// nextTarget walks the cargo's assignment list and returns the first entry
// with more than a barrel outstanding whose tank is currently fillable
// (EMPTY or SUSPENDED, past its preparation time, with real headroom).
// Returns nil when every planned tank is blocked; the cargo then simply
// waits for the next tick.
func (p *SolverPlan) nextTarget(cargoID int, now Instant, eligible func(tank int) bool, headroom func(tank int) float64) *solverTarget {
	for i := range p.Cargos {
		if p.Cargos[i].CargoID != cargoID {
			continue
		}
		for j := range p.Cargos[i].Assignments {
			a := &p.Cargos[i].Assignments[j]
			if a.Remaining() <= 1.0 {
				continue
			}
			if !eligible(a.TankID) {
				continue
			}
			if headroom(a.TankID) <= 100 {
				continue
			}
			return &solverTarget{assignment: a, tank: a.TankID, remaining: a.Remaining()}
		}
		return nil
	}
	return nil
}
