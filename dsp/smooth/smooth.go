// Package smooth provides per-sample linear parameter ramps.
//
// Audible controls (delay time, feedback, mix, filter cutoff, stereo
// width) must never jump between samples; a Value ramps linearly from its
// current value to a new target over a fixed number of samples so the
// worst-case sample-to-sample change is a single ramp step.
package smooth

// Value is a linearly ramped scalar control value.
//
// A Value is not thread-safe; it is owned by the processing loop that
// calls Next.
type Value struct {
	current   float64
	target    float64
	step      float64
	remaining int
}

// NewValue creates a settled value at initial.
func NewValue(initial float64) *Value {
	return &Value{current: initial, target: initial}
}

// SetTarget begins a linear ramp from the current value to target over
// rampSamples calls to Next. A rampSamples <= 0 jumps immediately.
// Retargeting mid-ramp discards the previous ramp.
func (v *Value) SetTarget(target float64, rampSamples int) {
	if rampSamples <= 0 || target == v.current {
		v.Snap(target)
		return
	}
	v.target = target
	v.step = (target - v.current) / float64(rampSamples)
	v.remaining = rampSamples
}

// Snap sets the value immediately, cancelling any ramp in progress.
func (v *Value) Snap(value float64) {
	v.current = value
	v.target = value
	v.step = 0
	v.remaining = 0
}

// Next advances the ramp one sample and returns the new current value.
// Once the ramp completes it returns the target exactly on every call
// until retargeted.
func (v *Value) Next() float64 {
	if v.remaining <= 0 {
		return v.current
	}
	v.remaining--
	if v.remaining == 0 {
		// Land on the target exactly so no residual drift accumulates.
		v.current = v.target
		v.step = 0
		return v.current
	}
	v.current += v.step
	return v.current
}

// Current returns the value without advancing the ramp.
func (v *Value) Current() float64 { return v.current }

// Target returns the ramp destination.
func (v *Value) Target() float64 { return v.target }

// Settled reports whether the ramp has completed.
func (v *Value) Settled() bool { return v.remaining == 0 }
