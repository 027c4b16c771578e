package sim

// CargoType is the vessel class of a marine cargo. The identifiers are part
// of the external contract.
type CargoType string

const (
	CargoVLCC  CargoType = "VLCC"
	CargoSuez  CargoType = "SUEZ"
	CargoAfra  CargoType = "AFRA"
	CargoPana  CargoType = "PANA"
	CargoHandy CargoType = "HANDY"
	// CargoUnknown appears only in solver mode, when the plan omits a class.
	CargoUnknown CargoType = "UNKNOWN"
)

// cargoTypeOrder fixes the iteration order for the random type pick and the
// per-type vessel-name counters.
var cargoTypeOrder = []CargoType{CargoVLCC, CargoSuez, CargoAfra, CargoPana, CargoHandy}

// Valid reports whether ct is a recognized cargo type.
func (ct CargoType) Valid() bool {
	switch ct {
	case CargoVLCC, CargoSuez, CargoAfra, CargoPana, CargoHandy, CargoUnknown:
		return true
	}
	return false
}

// TankFill is one completed discharge slice from a cargo into a tank.
type TankFill struct {
	Tank   int
	Start  Instant
	End    Instant
	Volume float64
}

// Cargo is the per-cargo record. Cargos live in the engine's central list;
// the active-fill table and berths reference them by vessel name.
type Cargo struct {
	VesselName string
	Type       CargoType
	CrudeType  string
	Berth      int

	// SolverID is the plan's cargo identifier; zero outside solver mode.
	SolverID int

	VolumeTotal     float64
	RemainingVolume float64

	ArrivalAt   Instant
	FillStartAt Instant // ArrivalAt + pre-discharge delay

	DischargeStartAt  Instant
	DischargeStartSet bool
	DischargeEndAt    Instant
	DischargeEndSet   bool

	// NextFillAvailableAt enforces the inter-tank gap within this cargo.
	NextFillAvailableAt  Instant
	NextFillAvailableSet bool

	TanksStarted int
	TanksDone    int
	TankFills    []TankFill

	// Dispatched marks a solver-mode cargo that has been seated at its berth.
	Dispatched bool
	// ArrivalLogged guards against duplicate ARRIVAL events.
	ArrivalLogged bool
	// FillingStarted switches the solver-mode fill message wording after the
	// cargo's first slice.
	FillingStarted bool
}

// DischargedVolume sums the completed tank fills.
func (c *Cargo) DischargedVolume() float64 {
	total := 0.0
	for _, f := range c.TankFills {
		total += f.Volume
	}
	return total
}

// Berth is one of the two discharge berths. A berth is owned by its current
// cargo from arrival until discharge completes.
type Berth struct {
	ID           int
	FreeAt       Instant
	CurrentCargo string // vessel name; empty when idle
}

// Idle reports whether no cargo occupies the berth.
func (b *Berth) Idle() bool {
	return b.CurrentCargo == ""
}

// activeFill is the single in-flight discharge slice of a cargo.
type activeFill struct {
	Tank   int
	EndAt  Instant
	Volume float64
}
