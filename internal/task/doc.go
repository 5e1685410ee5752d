// Package task runs the cube reorientation task for one session.
//
// A [Session] owns the goal sampler, the rotation counters and the
// observation pipeline. The stepping goroutine calls, once per step:
//
//	sess.Transition(eng)      // success / drop / timeout, goal changes
//	sess.Residual(eng, r)     // cost vector for the planner
//	sess.Observe(eng, est)    // noisy, filtered, delayed estimate
//
// # Locking
//
// Every call holds the session mutex for its whole duration, with one
// exception: when Transition resets the cube or changes the goal it needs
// the engine to recompute derived quantities. [dynamo.Engine.Forward] takes
// the session lock itself, so Transition decides under the lock whether a
// recompute is needed, releases the lock, calls Forward, and takes the lock
// again to publish telemetry. Engines that share the lock receive it from
// [Session.Locker].
package task
