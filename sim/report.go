package sim

import (
	"fmt"
	"sort"
	"strings"
)

// DailySummary is one row of the daily summary stream. Volumes are usable
// barrels summed over the named tank sets.
type DailySummary struct {
	Date               Instant
	OpeningStock       float64 // all tanks at day open
	OpeningCertified   float64 // READY + FEEDING at day open
	OpeningUncertified float64 // OpeningStock - OpeningCertified
	Processed          float64 // stepwise consumption over the day
	ClosingStock       float64 // all tanks at day close
	ReadyTanks         int
	EmptyTanks         int
	TankStates         map[int]TankState // live states at day close
}

// CargoRow is one row of the cargo report, emitted per cargo that started
// discharging.
type CargoRow struct {
	VesselName string
	Type       CargoType
	Berth      int

	ArrivalAt        Instant
	DischargeStartAt Instant
	DischargeEndAt   Instant
	DischargeEndSet  bool

	// BerthGapHours is the idle time between the prior cargo's discharge end
	// at the same berth and this cargo's arrival; unknown for the first
	// cargo at a berth.
	BerthGapHours    float64
	BerthGapKnown    bool
	DischargeHours   float64
	TotalVolume      float64
	TanksFilled      float64 // fractional tank count, volume / usable
	FillDetails      string  // "Tank{id}: start-end (V bbl)" segments
}

// buildCargoReport synthesizes the cargo rows. Berth gaps are computed by
// walking each berth's cargos in arrival order against the previous
// discharge end at that berth.
func (s *Simulator) buildCargoReport() []CargoRow {
	arrived := make([]*Cargo, 0, len(s.cargos))
	for _, c := range s.cargos {
		if c.ArrivalLogged {
			arrived = append(arrived, c)
		}
	}
	sort.SliceStable(arrived, func(i, j int) bool {
		if arrived[i].Berth != arrived[j].Berth {
			return arrived[i].Berth < arrived[j].Berth
		}
		return arrived[i].ArrivalAt < arrived[j].ArrivalAt
	})

	type gap struct {
		hours float64
		known bool
	}
	gaps := make(map[string]gap, len(arrived))
	lastEnd := map[int]Instant{}
	lastEndSet := map[int]bool{}
	for _, c := range arrived {
		if lastEndSet[c.Berth] {
			gaps[c.VesselName] = gap{hours: lastEnd[c.Berth].HoursUntil(c.ArrivalAt), known: true}
		} else {
			gaps[c.VesselName] = gap{}
		}
		if c.DischargeEndSet {
			lastEnd[c.Berth] = c.DischargeEndAt
			lastEndSet[c.Berth] = true
		}
	}

	var rows []CargoRow
	for _, c := range s.cargos {
		if !c.DischargeStartSet {
			continue
		}
		actual := c.DischargedVolume()

		dischargeHours := 0.0
		if c.DischargeEndSet {
			dischargeHours = c.DischargeStartAt.HoursUntil(c.DischargeEndAt)
		}

		details := make([]string, 0, len(c.TankFills))
		for _, f := range c.TankFills {
			details = append(details, fmt.Sprintf("Tank%d: %s-%s (%s bbl)",
				f.Tank, f.Start.Format(), f.End.Format(), FormatBBL(f.Volume)))
		}

		g := gaps[c.VesselName]
		rows = append(rows, CargoRow{
			VesselName:       c.VesselName,
			Type:             c.Type,
			Berth:            c.Berth,
			ArrivalAt:        c.ArrivalAt,
			DischargeStartAt: c.DischargeStartAt,
			DischargeEndAt:   c.DischargeEndAt,
			DischargeEndSet:  c.DischargeEndSet,
			BerthGapHours:    g.hours,
			BerthGapKnown:    g.known,
			DischargeHours:   dischargeHours,
			TotalVolume:      actual,
			TanksFilled:      actual / s.usable,
			FillDetails:      strings.Join(details, " | "),
		})
	}
	return rows
}
