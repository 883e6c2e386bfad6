// Package onepole implements a single-pole IIR lowpass filter.
//
// The filter is the classic leaky integrator used for tone shaping in
// feedback paths:
//
//	y[n] = x[n]*a0 + y[n-1]*b1,  b1 = exp(-2π·fc/fs),  a0 = 1 - b1
//
// a0 + b1 == 1, so DC gain is exactly unity. Coefficients are recomputed
// only when the cutoff changes; the single state sample persists across
// blocks.
package onepole

import (
	"fmt"
	"math"

	"github.com/charlesvestal/move-anything-space-delay/dsp/core"
)

// Cutoff bounds keep b1 strictly inside (0, 1) for any supported rate.
const (
	minCutoffHz      = 10.0
	maxCutoffRatio   = 0.45 // of the sample rate
	minSupportedRate = 1000.0
	maxSupportedRate = 768000.0
)

// Filter is a one-pole lowpass.
type Filter struct {
	sampleRate float64
	cutoffHz   float64

	a0 float64
	b1 float64
	z1 float64
}

// NewLowpass creates a one-pole lowpass at the given cutoff.
func NewLowpass(cutoffHz, sampleRate float64) (*Filter, error) {
	if sampleRate < minSupportedRate || sampleRate > maxSupportedRate ||
		math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("onepole sample rate must be in [%g, %g]: %f",
			minSupportedRate, maxSupportedRate, sampleRate)
	}

	f := &Filter{sampleRate: sampleRate}
	f.SetCutoff(cutoffHz)
	return f, nil
}

// SetCutoff updates the cutoff frequency in Hz. The value is clamped to
// [10 Hz, 0.45·fs] so the feedback coefficient stays inside (0, 1).
// Calling it with the current cutoff is free.
func (f *Filter) SetCutoff(cutoffHz float64) {
	cutoffHz = core.Clamp(cutoffHz, minCutoffHz, maxCutoffRatio*f.sampleRate)
	if cutoffHz == f.cutoffHz && f.a0 != 0 {
		return
	}

	f.cutoffHz = cutoffHz
	f.b1 = math.Exp(-2 * math.Pi * cutoffHz / f.sampleRate)
	f.a0 = 1 - f.b1
}

// ProcessSample filters one sample and returns the new filter state.
func (f *Filter) ProcessSample(x float64) float64 {
	f.z1 = core.FlushDenormals(x*f.a0 + f.z1*f.b1)
	return f.z1
}

// ProcessInPlace filters buf in place.
func (f *Filter) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = f.ProcessSample(buf[i])
	}
}

// Reset clears filter state.
func (f *Filter) Reset() {
	f.z1 = 0
}

// Cutoff returns the effective (clamped) cutoff frequency in Hz.
func (f *Filter) Cutoff() float64 { return f.cutoffHz }

// SampleRate returns the sample rate in Hz.
func (f *Filter) SampleRate() float64 { return f.sampleRate }

// Coefficients returns (a0, b1).
func (f *Filter) Coefficients() (float64, float64) { return f.a0, f.b1 }
