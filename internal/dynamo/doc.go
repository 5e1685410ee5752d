// Package dynamo provides the shared vocabulary of the cube reorientation
// task.
//
// The package defines the types every other package speaks:
//
//   - [State]: flat vector of generalized positions and velocities
//   - [Engine]: the slice of the physics engine the task reads and writes
//   - [StateBuffer]: the estimator-side copy of the state rewritten by the
//     observation pipeline
//   - [Telemetry]: read-only per-step counters published by the task
//   - [Metric]: episode statistic fed one [Sample] per step
//
// # Layout
//
// The hand-cube model has a free-jointed cube followed by 16 hinge joints:
//
//	qpos = [cube pos (3), cube quat (4), joints (16)]   NQ = 23
//	qvel = [cube lin vel (3), cube ang vel (3), joints (16)]   NV = 22
//
// # Thread Safety
//
// Nothing in this package synchronizes. Engines are driven from a single
// stepping goroutine; see package task for the locking discipline.
package dynamo
