// Package sim provides the discrete-event simulation kernel of a
// three-stage manufacturing line: two inspectors feed three assembly
// workstations through bounded two-slot buffers.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - component.go: Component lifecycle (unstarted → inspecting → finished → enqueued)
//   - workstation.go: buffers, assembly jobs and the Assembled event
//   - inspector.go: inspection, placement, and the blocking protocol
//   - facility.go: the shared-clock dispatch loop and event broadcast
//
// # Architecture
//
// Actors (three workstations, two inspectors) each own at most one pending
// completion. The Facility repeatedly fires the actor with the earliest
// completion and broadcasts the derived event, if any, to every actor before
// advancing. Inspectors refer to workstations through the facility registry.
//
// Sub-packages:
//   - sim/workload/: exponential duration sampling and per-replication supplies
//   - sim/trace/: dispatch trace recording
//   - sim/replication/: replication controller and confidence intervals
//   - sim/results/: SQLite persistence of replication statistics
//
// # Invariants
//
// Kernel defects (double finish, dispatch while blocked, assembling without
// material, exhausted duration supply, clock moving backwards) panic with
// *InvariantViolation. A rejected placement is an ordinary outcome.
package sim
