// Package sim provides the discrete-event simulation engine for a crude-oil
// refinery tank farm: marine cargos arrive at two berths, discharge into
// tanks, the tanks settle and certify, and a single feeding tank supplies
// the refinery at a fixed rate.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - tank.go: the per-tank record and its state machine
//     (FILLING -> FILLED -> SETTLING -> LAB -> READY -> FEEDING -> EMPTY)
//   - simulator.go: the step driver, entity tables, and the per-tick phase
//     order (promote -> complete fills -> ensure feeding -> start fills ->
//     consume)
//   - recorder.go: the canonical event log and snapshot streams
//
// # Architecture
//
// The engine is single-threaded and deterministic under a fixed seed
// (rng.go). Entities live in central tables on the Simulator and reference
// each other by integer id or vessel name:
//   - feeding.go: feeding controller — sequential tank handover, fixed-rate
//     consumption, halt/resume on starvation
//   - scheduler.go: berth and cargo admission, standard random policy or
//     solver-plan dispatch
//   - fill.go: per-cargo discharge slices, at most one active fill per cargo
//   - solver.go: optional pre-computed plan that pins fill targets
//   - history.go: append-only state history backing point-in-time queries
//   - report.go: daily summary and cargo report synthesis
//
// Run returns a Result with four structured streams (event log, daily
// summaries, cargo rows, tank snapshots); serialization is the caller's
// concern.
package sim
