package sim

import "time"

// Shared fixtures for the sim package tests.

func testStart() time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}

// testConfig returns a small valid configuration: two full tanks, no cargo
// types enabled. Tests override the fields they exercise.
func testConfig() Config {
	return Config{
		ProcessingRate: 600000,
		NumTanks:       2,
		Start:          testStart(),
		HorizonDays:    3,
		UsablePerTank:  600000,
		SettlingDays:   1,
		LabHours:       0,
		DischargeRate:  60000,
		CargoDefs:      map[CargoType]float64{},
	}
}

// eventNameSet collects the rendered (cycle-suffixed) event names.
func eventNameSet(events []Event) map[string]bool {
	names := make(map[string]bool, len(events))
	for i := range events {
		names[events[i].Name()] = true
	}
	return names
}

// countBaseEvents counts events by base name, ignoring cycle suffixes.
func countBaseEvents(events []Event, base string) int {
	n := 0
	for i := range events {
		if events[i].Event == base {
			n++
		}
	}
	return n
}

// firstEvent returns the earliest event with the given base name. The event
// log is chronologically sorted by the time results are built.
func firstEvent(events []Event, base string) (Event, bool) {
	for i := range events {
		if events[i].Event == base {
			return events[i], true
		}
	}
	return Event{}, false
}
