// Package control provides policies that drive the hand-cube harness.
//
// A [Policy] turns the observed state and the current goal into a
// [Command]: joint position targets for the hand and a twist for the cube.
// The kinematic engine applies the twist directly, standing in for the
// finger contacts a planner would produce.
//
//   - [Tracker]: PID on the orientation error, with optional scheduled drops
//   - [Manual]: a fixed twist, for spinning the cube at a known rate
//   - [None]: hold the nominal pose and leave the cube alone
//
// # Usage
//
//	p, err := control.New("tracker", map[string]float64{"kp": 4})
//	cmd := p.Compute(control.Input{...}, t)
//
// Policies implement [dynamo.Configurable] for live tuning.
package control
