// Package analysis provides frequency-domain tools for recorded traces.
//
// [Spectrum] estimates the one-sided amplitude spectrum of a uniformly
// sampled series. It is used to inspect the angular velocity estimate the
// policy sees, where the observation noise and the velocity filter show up
// as a raised noise floor and a low-pass roll-off.
//
//	spec, err := analysis.Spectrum(series, dt)
//	if err != nil {
//	    return err
//	}
//	f, amp := spec.Peak()
package analysis
