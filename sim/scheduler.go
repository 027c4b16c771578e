package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// randGapHours draws a uniform inter-arrival gap from the configured bounds.
func (s *Simulator) randGapHours() float64 {
	lo, hi := s.cfg.BerthGapHoursMin, s.cfg.BerthGapHoursMax
	if hi <= lo {
		return lo
	}
	return lo + s.rng.ForSubsystem(SubsystemBerth).Float64()*(hi-lo)
}

// scheduleCargos runs one admission check: solver dispatch when a plan is
// loaded, the standard random policy otherwise. Called at each day boundary
// and whenever a berth is released.
func (s *Simulator) scheduleCargos(now Instant) {
	if s.solverMode {
		s.scheduleCargosSolver(now)
		return
	}
	s.scheduleCargosStandard(now)
}

// scheduleCargosSolver dispatches the next pending plan cargo whose berth is
// idle and whose gap since the berth was last freed has elapsed. The cargo's
// arrival is pinned to that earliest admissible time. At most one cargo is
// dispatched per check; the berth stays occupied until the cargo fully
// completes.
func (s *Simulator) scheduleCargosSolver(now Instant) {
	for _, c := range s.cargos {
		if c.Dispatched {
			continue
		}
		berth := s.berths[c.Berth]
		gap := s.randGapHours()
		earliest := berth.FreeAt.AddHours(gap)

		if berth.Idle() && now >= earliest {
			c.Dispatched = true
			berth.CurrentCargo = c.VesselName
			c.ArrivalAt = earliest
			c.FillStartAt = earliest.AddHours(s.fillDelayHours)

			if !c.ArrivalLogged {
				s.rec.log(c.ArrivalAt, LevelSuccess, EventArrival, 0, c.VesselName,
					fmt.Sprintf("BERTH %d CARGO ARRIVED. Fill starts at %s", c.Berth, c.FillStartAt.FormatShort()))
				c.ArrivalLogged = true
			}
			break
		}
	}
}

// scheduleCargosStandard admits at most one new randomly-typed cargo. The
// first cargo waits for the configured READY-tank window; subsequent cargos
// require the minimum READY count and target an arrival 18 hours before the
// projected stock-out, never earlier than the berth gap allows.
func (s *Simulator) scheduleCargosStandard(now Instant) {
	logrus.Debugf("schedule check at %s: %d READY tanks, first cargo scheduled: %v",
		now.Format(), s.countState(StateReady), s.firstCargoScheduled)

	for _, bid := range []int{1, 2} {
		berth := s.berths[bid]
		if !berth.Idle() || berth.FreeAt > now {
			continue
		}

		gap := s.randGapHours()
		readyCount := s.countState(StateReady)

		var arrival Instant
		if !s.firstCargoScheduled {
			if readyCount < s.cfg.FirstCargoMinReady || readyCount > s.cfg.FirstCargoMaxReady {
				continue
			}
			s.firstCargoScheduled = true
			arrival = now.AddHours(gap)
		} else {
			if readyCount < s.cfg.MinReadyTanks {
				continue
			}
			if hrs, ok := s.predictHoursUntilNextEmpty(); ok {
				arrival = now.AddHours(hrs - 18)
				if lower := berth.FreeAt.AddHours(gap); arrival < lower {
					arrival = lower
				}
			} else {
				arrival = berth.FreeAt.AddHours(gap)
			}
		}

		var enabled []CargoType
		for _, ct := range cargoTypeOrder {
			if s.cfg.CargoDefs[ct] > 0 {
				enabled = append(enabled, ct)
			}
		}
		if len(enabled) == 0 {
			continue
		}
		ctype := enabled[s.rng.ForSubsystem(SubsystemCargo).Intn(len(enabled))]

		s.cargoCounter[ctype]++
		vessel := fmt.Sprintf("%s-V%03d", ctype, s.cargoCounter[ctype])
		volume := s.cfg.CargoDefs[ctype]

		cargo := &Cargo{
			VesselName:      vessel,
			Type:            ctype,
			Berth:           bid,
			ArrivalAt:       arrival,
			FillStartAt:     arrival.AddHours(s.fillDelayHours),
			VolumeTotal:     volume,
			RemainingVolume: volume,
			ArrivalLogged:   true,
		}
		s.cargos = append(s.cargos, cargo)
		berth.CurrentCargo = vessel

		s.rec.log(arrival, LevelSuccess, EventArrival, 0, vessel,
			fmt.Sprintf("BERTH %d: %s arrives. Volume: %s bbl", bid, vessel, FormatBBL(volume)))
		break
	}
}

// predictHoursUntilNextEmpty estimates how long current certified stock
// lasts: the active tank's time to empty plus one full tank per READY tank
// queued behind it. Returns false when nothing is feeding.
func (s *Simulator) predictHoursUntilNextEmpty() (float64, bool) {
	if s.active == 0 || s.tanks[s.active].State != StateFeeding {
		return 0, false
	}
	hours := s.tanks[s.active].Volume / s.rateHour
	for tid := 1; tid <= s.cfg.NumTanks; tid++ {
		if s.tanks[tid].State == StateReady {
			hours += s.usable / s.rateHour
		}
	}
	return hours, true
}
