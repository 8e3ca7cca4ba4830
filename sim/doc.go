// Package sim provides the core fixed-timestep race simulation model.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - config.go: Track, driver and car profiles and race configuration validation
//   - state.go: DriverState, the per-driver kinematic state mutated once per tick
//   - physics.go: the tick update rule (speed, wear, sector/lap rollover, pit entry/exit)
//   - position.go: race-position ranking by total distance
//
// # Architecture
//
// The sim package defines the shared model; the engines that drive it live in
// sub-packages:
//   - sim/live/: live engine producing telemetry frames every tick
//   - sim/strategy/: offline what-if races and the parallel pit-lap optimizer
//   - sim/racecontrol/: penalty ledger and sector-boundary violation detector
//   - sim/ring/: bounded frame buffer between producer and consumer
//   - sim/pipeline/: producer/consumer runner wiring everything together
//   - sim/trace/: race-control decision trace recording
//   - sim/roster/: YAML roster loading
//
// Both engines apply the same Physics.Step; they differ only in the
// PitCostModel they pass. The live engine models the pit stop as a dwell in
// the pit lane, the offline simulator charges an instantaneous time cost.
package sim
