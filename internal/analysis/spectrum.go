package analysis

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrShortSeries = errors.New("series needs at least two samples")
	ErrBadStep     = errors.New("sample step must be positive")
)

// SpectrumResult is a one-sided amplitude spectrum.
type SpectrumResult struct {
	Freq      []float64
	Amplitude []float64
}

// Spectrum removes the mean, applies a Hann window and returns the one-sided
// amplitude spectrum of x sampled every dt seconds. Bin k sits at k/(n*dt).
func Spectrum(x []float64, dt float64) (*SpectrumResult, error) {
	n := len(x)
	if n < 2 {
		return nil, ErrShortSeries
	}
	if dt <= 0 {
		return nil, ErrBadStep
	}

	mean := stat.Mean(x, nil)
	buf := make([]float64, n)
	for i, v := range x {
		buf[i] = v - mean
	}
	win := window.Hann(n)
	var gain float64
	for i := range buf {
		buf[i] *= win[i]
		gain += win[i]
	}
	if gain == 0 {
		gain = 1
	}

	coeffs := fft.FFTReal(buf)
	bins := n/2 + 1
	res := &SpectrumResult{
		Freq:      make([]float64, bins),
		Amplitude: make([]float64, bins),
	}
	for k := 0; k < bins; k++ {
		res.Freq[k] = float64(k) / (float64(n) * dt)
		a := cmplx.Abs(coeffs[k]) / gain
		if k > 0 && !(n%2 == 0 && k == n/2) {
			a *= 2
		}
		res.Amplitude[k] = a
	}
	return res, nil
}

// Peak returns the frequency and amplitude of the strongest non-DC bin.
func (s *SpectrumResult) Peak() (freq, amp float64) {
	for k := 1; k < len(s.Amplitude); k++ {
		if s.Amplitude[k] > amp {
			freq, amp = s.Freq[k], s.Amplitude[k]
		}
	}
	return freq, amp
}

// BandPower sums squared amplitudes of the bins in [lo, hi).
func (s *SpectrumResult) BandPower(lo, hi float64) float64 {
	var p float64
	for k, f := range s.Freq {
		if f >= lo && f < hi {
			p += s.Amplitude[k] * s.Amplitude[k]
		}
	}
	return p
}
