// Package viz provides a live terminal dashboard for a running session.
//
// The dashboard is a Bubble Tea program: it steps the simulator on every
// tick, draws the observed cube and the goal as Braille wireframes and lists
// the telemetry and the session tunables.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	S     - Single step while paused
//	R     - Reset the episode
//	Tab   - Select the next tunable
//	Up/K  - Increase the selected tunable
//	Down/J- Decrease the selected tunable
//	Q     - Quit
package viz
