package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// tankEligibleForFill reports whether a tank can accept a slice right now:
// EMPTY or SUSPENDED, past its preparation time. Tanks in FILLING are never
// eligible, which is what enforces single-owner fills.
func (s *Simulator) tankEligibleForFill(tid int, now Instant) bool {
	t := s.tanks[tid]
	if t.State != StateEmpty && t.State != StateSuspended {
		return false
	}
	return now >= t.ReadyForFillAt
}

// pickFillTarget chooses the next tank for a standard-mode fill: tanks that
// started the run empty are taken first, then any eligible EMPTY/SUSPENDED
// tank in id order.
func (s *Simulator) pickFillTarget(now Instant) int {
	for tid := 1; tid <= s.cfg.NumTanks; tid++ {
		if s.tanks[tid].InitiallyEmpty && s.tankEligibleForFill(tid, now) {
			s.tanks[tid].InitiallyEmpty = false
			return tid
		}
	}
	for tid := 1; tid <= s.cfg.NumTanks; tid++ {
		if !s.tanks[tid].InitiallyEmpty && s.tankEligibleForFill(tid, now) {
			return tid
		}
	}
	return 0
}

// startFills starts new discharge slices for every cargo that is past its
// fill-start time, has volume left, and has no slice in flight. Solver-mode
// cargos follow their assignment list; a cargo whose planned tanks are all
// blocked simply waits for the next tick.
func (s *Simulator) startFills(now Instant) {
	for _, c := range s.cargos {
		if c.RemainingVolume <= 1.0 {
			continue
		}
		if _, busy := s.activeFills[c.VesselName]; busy {
			continue
		}
		if !c.DischargeStartSet {
			if s.solverMode && !c.Dispatched {
				continue
			}
			if now < c.FillStartAt {
				continue
			}
		}
		if c.NextFillAvailableSet && now < c.NextFillAvailableAt {
			continue
		}

		if s.solverMode && s.plan.assignmentCount(c.SolverID) > 0 {
			s.startSolverFill(c, now)
			continue
		}
		s.startStandardFill(c, now)
	}
}

// startSolverFill walks the cargo's assignment list for the first actionable
// target and opens the slice against it.
func (s *Simulator) startSolverFill(c *Cargo, now Instant) {
	eligible := func(tid int) bool { return s.tankEligibleForFill(tid, now) }
	headroom := func(tid int) float64 { return s.usable - s.tanks[tid].Volume }

	target := s.plan.nextTarget(c.SolverID, now, eligible, headroom)
	if target == nil {
		return
	}
	tid := target.tank
	t := s.tanks[tid]

	volumeToFill := math.Min(target.remaining, math.Min(c.RemainingVolume, s.usable-t.Volume))
	if volumeToFill <= 1.0 {
		return
	}

	crude := target.assignment.CrudeName
	if crude == "" {
		crude = c.CrudeType
	}
	t.addMix(crude, volumeToFill)
	target.assignment.Filled += volumeToFill

	s.openFill(c, tid, volumeToFill, now)

	displayCurrent := t.Volume + s.unusable
	displayTarget := displayCurrent + volumeToFill
	var msg string
	if !c.FillingStarted {
		msg = fmt.Sprintf("BERTH %d: First fill from %s filling Tank %d with %s bbl %s (current: %s, target: %s)",
			c.Berth, c.VesselName, tid, FormatBBL(volumeToFill), crude,
			FormatBBL(displayCurrent), FormatBBL(displayTarget))
		c.FillingStarted = true
	} else {
		msg = fmt.Sprintf("BERTH %d: Start (solver) filling Tank %d with %s bbl %s (current: %s, target: %s)",
			c.Berth, tid, FormatBBL(volumeToFill), crude,
			FormatBBL(displayCurrent), FormatBBL(displayTarget))
	}
	s.logFillStart(c, tid, now, msg)
}

// startStandardFill picks the next eligible tank sequentially and opens a
// slice capped at one full tank.
func (s *Simulator) startStandardFill(c *Cargo, now Instant) {
	tid := s.pickFillTarget(now)
	if tid == 0 {
		return
	}
	volumeToFill := math.Min(c.RemainingVolume, s.usable)
	fillHours := volumeToFill / s.cfg.DischargeRate

	s.openFill(c, tid, volumeToFill, now)
	s.logFillStart(c, tid, now,
		fmt.Sprintf("BERTH %d: Start filling Tank %d with %s bbl (rate %s bbl/hr, duration %.2f h)",
			c.Berth, tid, FormatBBL(volumeToFill), FormatBBL(s.cfg.DischargeRate), fillHours))
}

// openFill registers the active slice and starts the discharge clock. At
// most one slice per cargo exists at any time.
func (s *Simulator) openFill(c *Cargo, tid int, volumeToFill float64, now Instant) {
	c.TanksStarted++
	if !c.DischargeStartSet {
		c.DischargeStartAt = now
		c.DischargeStartSet = true
	}
	endAt := now.AddHours(volumeToFill / s.cfg.DischargeRate)
	s.activeFills[c.VesselName] = activeFill{Tank: tid, EndAt: endAt, Volume: volumeToFill}
}

// logFillStart transitions the tank to FILLING and logs the cycle-aware
// start event: FILL_START_FIRST for the tank's first slice this cycle.
func (s *Simulator) logFillStart(c *Cargo, tid int, now Instant, msg string) {
	t := s.tanks[tid]
	eventName := EventFillStart
	if !t.FirstFillDone {
		eventName = EventFillStartFirst
		t.FirstFillDone = true
	}
	s.changeState(tid, StateFilling, now)
	s.rec.log(now, LevelInfo, eventName, tid, c.VesselName, msg)
}

// finishFills completes every slice whose end time has been reached: adds
// the volume (clamped to usable), decides partial vs final via the 100 bbl
// gross-full tolerance, transitions the tank onwards, and releases the berth
// when the cargo is exhausted.
func (s *Simulator) finishFills(now Instant) {
	var finished []*Cargo

	for _, c := range s.cargos {
		af, ok := s.activeFills[c.VesselName]
		if !ok || now < af.EndAt {
			continue
		}
		tid := af.Tank
		t := s.tanks[tid]

		t.Volume = math.Min(t.Volume+af.Volume, s.usable)
		grossNow := t.Volume + s.unusable
		grossCapacity := s.usable + s.unusable
		isFull := grossNow >= grossCapacity-100

		eventName := EventFillEnd
		if isFull {
			eventName = EventFillFinalEnd
			s.changeState(tid, StateFilled, af.EndAt)
		}

		remainingAfter := math.Max(0, c.RemainingVolume-af.Volume)
		s.rec.log(af.EndAt, LevelInfo, eventName, tid, c.VesselName,
			fmt.Sprintf("Tank %d fill completed: added %s bbl (now %s bbl). Cargo remaining: %s bbl",
				tid, FormatBBL(af.Volume), FormatBBL(grossNow), FormatBBL(remainingAfter)))

		if !isFull {
			s.changeState(tid, StateSuspended, af.EndAt)
			t.ReadyForFillAt = af.EndAt.AddHours(s.cfg.TankFillGapHours)
		} else {
			settleEnd := af.EndAt.AddHours(s.settleHours)
			t.SettleEndAt = settleEnd
			t.SettleEndSet = true
			t.freezeMixPct()

			s.changeState(tid, StateSettling, af.EndAt)
			s.rec.log(af.EndAt, LevelInfo, EventSettlingStart, tid, c.VesselName,
				fmt.Sprintf("Tank %d FILLED FULL (%s bbl) - Mix: [%s] - Settling for %.0f hours",
					tid, FormatBBL(t.Volume), mixString(t.MixPct), s.settleHours))

			if s.labHours > 0 {
				t.LabStartAt = settleEnd
				t.LabStartSet = true
				t.ReadyAt = settleEnd.AddHours(s.labHours)
				t.ReadyAtSet = true
			} else {
				t.ReadyAt = settleEnd
				t.ReadyAtSet = true
			}
		}

		fillStart := af.EndAt.AddHours(-af.Volume / s.cfg.DischargeRate)
		c.TanksDone++
		c.TankFills = append(c.TankFills, TankFill{Tank: tid, Start: fillStart, End: af.EndAt, Volume: af.Volume})
		c.RemainingVolume -= af.Volume

		if c.RemainingVolume <= 1.0 {
			c.DischargeEndAt = af.EndAt
			c.DischargeEndSet = true
			finished = append(finished, c)
		}

		delete(s.activeFills, c.VesselName)

		if c.RemainingVolume > 1.0 {
			next := af.EndAt.AddHours(s.cfg.TankFillGapHours)
			c.NextFillAvailableAt = next
			c.NextFillAvailableSet = true
			if s.cfg.TankFillGapHours > 0 {
				s.rec.log(af.EndAt, LevelInfo, EventTankGapStart, tid, c.VesselName,
					fmt.Sprintf("Tank %d complete. %s waiting for %vh gap. Next fill available at %s",
						tid, c.VesselName, s.cfg.TankFillGapHours, next.FormatShort()))
			}
			s.startFills(af.EndAt)
		}
	}

	for _, c := range finished {
		berth := s.berths[c.Berth]
		berth.CurrentCargo = ""
		berth.FreeAt = c.DischargeEndAt
		s.rec.log(c.DischargeEndAt, LevelSuccess, EventDischargeComplete, 0, c.VesselName,
			fmt.Sprintf("BERTH %d: %s completed discharge of %s bbl - BERTH %d AVAILABLE",
				c.Berth, c.VesselName, FormatBBL(c.VolumeTotal), c.Berth))
		logrus.Debugf("berth %d released by %s at %s", c.Berth, c.VesselName, c.DischargeEndAt.Format())
		s.scheduleCargos(c.DischargeEndAt)
	}
}
