package sim

import "time"

// Instant is a point in simulation time, in Unix seconds. Second resolution
// keeps exact mid-interval instants (a tank emptying, a fill completing)
// representable without drifting onto the tick grid.
type Instant int64

// InstantMin sorts before every realizable instant; it encodes "no pending
// gap" on tank preparation timers.
const InstantMin Instant = -1 << 62

// TimestampLayout is the canonical report timestamp format.
const TimestampLayout = "02/01/2006 15:04"

// InstantOf converts wall-clock time to an Instant.
func InstantOf(t time.Time) Instant {
	return Instant(t.Unix())
}

// Time converts back to wall-clock time, in UTC.
func (i Instant) Time() time.Time {
	return time.Unix(int64(i), 0).UTC()
}

// AddHours offsets by a fractional hour count, truncated to whole seconds.
func (i Instant) AddHours(h float64) Instant {
	return i + Instant(h*3600.0)
}

// AddMinutes offsets by whole minutes.
func (i Instant) AddMinutes(m int) Instant {
	return i + Instant(m)*60
}

// AddDays offsets by a fractional day count.
func (i Instant) AddDays(d float64) Instant {
	return i.AddHours(d * 24.0)
}

// HoursUntil returns the signed hour span from i to later.
func (i Instant) HoursUntil(later Instant) float64 {
	return float64(later-i) / 3600.0
}

// Format renders the canonical "dd/MM/yyyy HH:mm" timestamp.
func (i Instant) Format() string {
	return i.Time().Format(TimestampLayout)
}

// FormatDate renders the date portion only.
func (i Instant) FormatDate() string {
	return i.Time().Format("02/01/2006")
}

// FormatClock renders the clock portion only.
func (i Instant) FormatClock() string {
	return i.Time().Format("15:04")
}

// FormatShort renders the compact "dd/MM HH:mm" form used inside messages.
func (i Instant) FormatShort() string {
	return i.Time().Format("02/01 15:04")
}

func minInstant(a, b Instant) Instant {
	if a < b {
		return a
	}
	return b
}
