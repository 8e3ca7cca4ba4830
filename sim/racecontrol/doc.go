// Package racecontrol enforces sporting rules during a live race.
//
// Ledger holds one penalty state machine per driver and is shared by the
// producer (the live engine consults it on pit entry and exit) and the
// consumer (the Detector issues penalties into it). Detector watches consumed
// telemetry frames for sector-boundary violations.
//
// Each type guards its records with its own mutex, held only for the duration
// of a single method. The Detector releases its lock before calling into the
// Ledger, so neither structure ever waits on the other.
package racecontrol
