// Package host adapts the space echo engine to a block-based effect
// host: a JSON instance config, string parameter keys and interleaved
// int16 stereo frames.
package host

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/charlesvestal/move-anything-space-delay/dsp/effects"
)

// EffectName is the display name reported to the host.
const EffectName = "Space Echo"

const defaultSampleRate = 44100.0

// paramControls maps host parameter keys to engine controls.
var paramControls = map[string]effects.Control{
	"time":         effects.ControlTime,
	"feedback":     effects.ControlFeedback,
	"mix":          effects.ControlMix,
	"tone":         effects.ControlTone,
	"flutter":      effects.ControlFlutter,
	"saturation":   effects.ControlSaturation,
	"stereo_width": effects.ControlStereoWidth,
}

// Option configures an Instance at creation time.
type Option func(*instanceOptions) error

type instanceOptions struct {
	logger func(string)
}

// WithLogger installs a host log callback. A nil callback keeps the
// instance silent.
func WithLogger(fn func(string)) Option {
	return func(o *instanceOptions) error {
		o.logger = fn
		return nil
	}
}

type instanceConfig struct {
	SampleRate float64            `json:"sample_rate"`
	Params     map[string]float64 `json:"params"`
}

// Instance is one loaded effect slot. It owns an engine and a scratch
// conversion buffer; instances never share state. An Instance is ready
// from NewInstance until Destroy and is not safe for concurrent use.
type Instance struct {
	engine    *effects.SpaceEcho
	logger    func(string)
	scratch   []float64
	destroyed bool
}

// NewInstance creates an effect instance from a JSON config of the form
//
//	{"sample_rate": 44100, "params": {"mix": 0.5}}
//
// Both fields are optional: a zero sample rate falls back to 44.1kHz and
// params are applied without smoothing. Unknown parameter keys are
// logged and ignored.
func NewInstance(configJSON []byte, opts ...Option) (*Instance, error) {
	var options instanceOptions
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&options); err != nil {
			return nil, err
		}
	}

	var cfg instanceConfig
	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &cfg); err != nil {
			return nil, fmt.Errorf("host: invalid instance config: %w", err)
		}
	}
	rate := cfg.SampleRate
	if rate == 0 {
		rate = defaultSampleRate
	}

	engine, err := effects.NewSpaceEcho(rate)
	if err != nil {
		return nil, err
	}

	inst := &Instance{engine: engine, logger: options.logger}
	for key, value := range cfg.Params {
		c, ok := paramControls[key]
		if !ok {
			inst.logf("%s: ignoring unknown parameter %q", EffectName, key)
			continue
		}
		if err := engine.SnapControl(c, value); err != nil {
			return nil, err
		}
	}

	inst.logf("%s ready at %.0f Hz", EffectName, rate)
	return inst, nil
}

// Name returns the effect display name.
func (i *Instance) Name() string { return EffectName }

// Ready reports whether the instance can process audio.
func (i *Instance) Ready() bool { return i != nil && !i.destroyed }

// SampleRate returns the configured sample rate, or 0 after Destroy.
func (i *Instance) SampleRate() float64 {
	if !i.Ready() {
		return 0
	}
	return i.engine.SampleRate()
}

// SetParam updates a parameter with click-free smoothing. The value is
// clamped to [0, 1]. Unknown keys are logged and ignored; calls after
// Destroy are no-ops.
func (i *Instance) SetParam(key string, value float64) {
	if !i.Ready() {
		return
	}
	c, ok := paramControls[key]
	if !ok {
		i.logf("%s: ignoring unknown parameter %q", EffectName, key)
		return
	}
	_ = i.engine.SetControl(c, value)
}

// Param returns the last normalized value set for a parameter key, or
// false for unknown keys and destroyed instances.
func (i *Instance) Param(key string) (float64, bool) {
	if !i.Ready() {
		return 0, false
	}
	c, ok := paramControls[key]
	if !ok {
		return 0, false
	}
	v, err := i.engine.ControlValue(c)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ProcessBlock applies the echo to interleaved stereo int16 frames in
// place. An odd trailing sample is left untouched. After Destroy the
// buffer passes through unchanged.
func (i *Instance) ProcessBlock(samples []int16) {
	if !i.Ready() {
		return
	}
	n := len(samples) &^ 1
	if n == 0 {
		return
	}

	if cap(i.scratch) < n {
		i.scratch = make([]float64, n)
	}
	buf := i.scratch[:n]
	for j := 0; j < n; j++ {
		buf[j] = float64(samples[j]) / 32768.0
	}

	// Length is even by construction, so this cannot fail.
	_ = i.engine.ProcessInterleavedInPlace(buf)

	for j := 0; j < n; j++ {
		samples[j] = int16(math.Round(buf[j] * 32767.0))
	}
}

// Destroy releases the instance. Safe to call repeatedly and on nil.
func (i *Instance) Destroy() {
	if !i.Ready() {
		return
	}
	i.destroyed = true
	i.engine = nil
	i.scratch = nil
	i.logf("%s destroyed", EffectName)
}

func (i *Instance) logf(format string, args ...any) {
	if i.logger == nil {
		return
	}
	i.logger(fmt.Sprintf(format, args...))
}
