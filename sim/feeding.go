package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// findNextReadySequential returns the next READY tank in sequential order
// (1 → 2 → ... → N → 1) starting after startFrom, or 0 when none is READY.
// Passing 0 scans from tank 1.
func (s *Simulator) findNextReadySequential(startFrom int) int {
	for offset := 1; offset <= s.cfg.NumTanks; offset++ {
		tid := ((startFrom-1+offset)%s.cfg.NumTanks + s.cfg.NumTanks) % s.cfg.NumTanks
		tid++
		if s.tanks[tid].State == StateReady {
			return tid
		}
	}
	return 0
}

// startFeedingFrom seats a tank as the active feed at the given instant:
// caps its volume at usable, captures the feed-start figures, and clears a
// pending halt.
func (s *Simulator) startFeedingFrom(tid int, now Instant) {
	wasHalted := s.halted
	s.active = tid
	t := s.tanks[tid]
	t.Volume = math.Min(t.Volume, s.usable)
	t.FeedStartVolume = t.Volume
	t.FeedStartAt = now
	t.FeedStartSet = true
	if wasHalted {
		s.rec.log(now, LevelSuccess, EventProcessingResume, 0, "", "Processing resumed after halt")
		s.halted = false
	}
	s.changeState(tid, StateFeeding, now)
}

// ensureFeeding guarantees a feeding tank exists when any tank is READY.
// When none is, PROCESSING_HALT is logged exactly once until feeding resumes.
func (s *Simulator) ensureFeeding(now Instant) {
	if s.active != 0 && s.tanks[s.active].State == StateFeeding {
		return
	}
	nxt := s.findNextReadySequential(s.active)
	if nxt == 0 {
		s.logHalt(now)
		return
	}
	s.startFeedingFrom(nxt, now)
	t := s.tanks[nxt]
	s.rec.log(now, LevelSuccess, EventFeedStart, nxt, "",
		fmt.Sprintf("Tank %d now starts feeding with %s bbl available", nxt, FormatBBL(t.Volume)))
}

// logHalt records the starvation halt once; subsequent calls are no-ops
// until feeding resumes.
func (s *Simulator) logHalt(now Instant) {
	if s.halted {
		return
	}
	readyCount := s.countState(StateReady)
	s.rec.log(now, LevelDanger, EventProcessingHalt, 0, "",
		fmt.Sprintf("Processing stopped - no READY tanks available (READY: %d)", readyCount))
	s.halted = true
}

// consume draws down the feeding tank over [now, stepEnd] at the fixed
// hourly rate and returns the volume processed. The rate is a hard ceiling:
// no sub-interval ever processes more than rate x hours.
//
// When the tank empties mid-interval the transition happens at the exact
// computed empty time, the next READY tank takes over, and consumption
// recurses on the remainder of the interval. With no successor the halt is
// logged and the remainder is lost.
func (s *Simulator) consume(now, stepEnd Instant) float64 {
	if s.active == 0 || s.tanks[s.active].State != StateFeeding {
		return 0
	}
	if s.rateHour <= 0 {
		return 0
	}
	t := s.tanks[s.active]

	if t.Volume <= 0 {
		// Should be unreachable: a FEEDING tank with no usable volume.
		s.changeState(s.active, StateEmpty, now)
		t.ReadyForFillAt = now.AddHours(s.cfg.TankGapHours)
		s.rec.log(now, LevelWarning, EventFeedError, s.active, "",
			fmt.Sprintf("Tank %d marked as FEEDING but has no usable volume (current: %s bbl, unusable: %s bbl)",
				s.active, FormatBBL(t.Volume), FormatBBL(s.unusable)))
		return 0
	}

	hours := now.HoursUntil(stepEnd)
	timeToEmptyH := t.Volume / s.rateHour

	if timeToEmptyH > hours {
		take := s.rateHour * hours
		t.Volume = math.Max(0, t.Volume-take)
		s.dailyConsumption[s.active] += take
		return take
	}

	// The tank empties within this interval.
	tEmpty := now.AddHours(timeToEmptyH)
	take := t.Volume
	t.Volume = 0
	s.dailyConsumption[s.active] += take
	processed := take

	emptied := s.active
	totalDraw := math.Min(t.FeedStartVolume, s.usable)
	t.resetCycle()

	s.changeState(emptied, StateEmpty, tEmpty)
	t.ReadyForFillAt = tEmpty.AddHours(s.cfg.TankGapHours)

	s.rec.log(tEmpty, LevelWarning, EventTankEmpty, emptied, "",
		fmt.Sprintf("Tank %d emptied. Total draw %s bbl.", emptied, FormatBBL(totalDraw)))
	if s.cfg.TankGapHours > 0 {
		s.rec.log(tEmpty, LevelInfo, EventEmptyStart, emptied, "",
			fmt.Sprintf("Tank %d emptied. Preparation time of %vh required. Ready for fill at %s",
				emptied, s.cfg.TankGapHours, t.ReadyForFillAt.FormatShort()))
	}

	nxt := s.findNextReadySequential(emptied)
	if nxt == 0 {
		s.active = 0
		s.logHalt(tEmpty)
		return processed
	}

	s.startFeedingFrom(nxt, tEmpty)
	s.rec.log(tEmpty, LevelSuccess, EventFeedChangeover, nxt, "",
		fmt.Sprintf("Tank %d starts feeding with %s bbl", nxt, FormatBBL(s.tanks[nxt].Volume)))
	logrus.Debugf("feed changeover %d -> %d at %s", emptied, nxt, tEmpty.Format())

	if tEmpty < stepEnd {
		processed += s.consume(tEmpty, stepEnd)
	}
	return processed
}
