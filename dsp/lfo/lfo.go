// Package lfo provides low-frequency oscillators for delay-time modulation.
package lfo

import (
	"fmt"
	"math"
)

// Flutter is a sinusoidal low-frequency oscillator that produces a
// bounded delay offset in samples, simulating tape transport wow/flutter.
//
// The phase accumulator lives in [0, 1) and advances by rate/sampleRate
// per call to Next.
type Flutter struct {
	sampleRate float64
	rateHz     float64
	phase      float64
}

// NewFlutter creates a flutter oscillator.
func NewFlutter(rateHz, sampleRate float64) (*Flutter, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("flutter sample rate must be > 0: %f", sampleRate)
	}
	if rateHz <= 0 || rateHz >= sampleRate/2 || math.IsNaN(rateHz) || math.IsInf(rateHz, 0) {
		return nil, fmt.Errorf("flutter rate must be in (0, %g): %f", sampleRate/2, rateHz)
	}
	return &Flutter{sampleRate: sampleRate, rateHz: rateHz}, nil
}

// Next advances the oscillator one sample and returns the modulation
// offset sin(2π·phase)·depthSamples. The result is bounded by
// ±depthSamples for any phase.
func (f *Flutter) Next(depthSamples float64) float64 {
	out := math.Sin(2*math.Pi*f.phase) * depthSamples

	f.phase += f.rateHz / f.sampleRate
	if f.phase >= 1 {
		f.phase -= 1
	}

	return out
}

// Reset rewinds the phase accumulator.
func (f *Flutter) Reset() {
	f.phase = 0
}

// RateHz returns the oscillator rate in Hz.
func (f *Flutter) RateHz() float64 { return f.rateHz }

// Phase returns the current phase in [0, 1).
func (f *Flutter) Phase() float64 { return f.phase }
