package effects

import (
	"fmt"
	"math"

	"github.com/charlesvestal/move-anything-space-delay/dsp/core"
	"github.com/charlesvestal/move-anything-space-delay/dsp/delay"
	"github.com/charlesvestal/move-anything-space-delay/dsp/effects/spatial"
	"github.com/charlesvestal/move-anything-space-delay/dsp/filter/onepole"
	"github.com/charlesvestal/move-anything-space-delay/dsp/lfo"
	"github.com/charlesvestal/move-anything-space-delay/dsp/smooth"
)

// Control identifies one normalized [0, 1] engine control.
type Control int

const (
	ControlTime Control = iota
	ControlFeedback
	ControlMix
	ControlTone
	ControlFlutter
	ControlSaturation
	ControlStereoWidth

	controlCount
)

// String returns the control name.
func (c Control) String() string {
	switch c {
	case ControlTime:
		return "time"
	case ControlFeedback:
		return "feedback"
	case ControlMix:
		return "mix"
	case ControlTone:
		return "tone"
	case ControlFlutter:
		return "flutter"
	case ControlSaturation:
		return "saturation"
	case ControlStereoWidth:
		return "stereo_width"
	default:
		return fmt.Sprintf("Control(%d)", int(c))
	}
}

const (
	// Delay time mapping: linear 50ms (time=0) to 800ms (time=1).
	minDelaySeconds = 0.050
	maxDelaySeconds = 0.800

	// Extra delay-line headroom so flutter modulation near the maximum
	// delay time never reads past the buffer.
	delayGuardSeconds = 0.010

	// Tone mapping: exponential 500 Hz (tone=0) to 12 kHz (tone=1).
	minToneHz = 500.0
	maxToneHz = 12000.0

	// Tape transport wobble: fixed-rate LFO, depth up to 2ms.
	flutterRateHz     = 5.0
	maxFlutterSeconds = 0.002

	// Hard feedback cap applied before saturation; keeps the loop
	// decaying even with saturation disabled.
	feedbackCap = 0.95

	// All audible controls ramp over this long to stay click-free.
	smoothingSeconds = 0.050

	defaultEchoTime        = 0.4
	defaultEchoFeedback    = 0.4
	defaultEchoMix         = 0.35
	defaultEchoTone        = 0.6
	defaultEchoFlutter     = 0.15
	defaultEchoSaturation  = 0.5
	defaultEchoStereoWidth = 0.0
)

// DelayTimeSeconds maps a normalized time control to a delay in seconds.
func DelayTimeSeconds(value float64) float64 {
	value = core.Clamp(value, 0, 1)
	return minDelaySeconds + value*(maxDelaySeconds-minDelaySeconds)
}

// ToneCutoffHz maps a normalized tone control to a lowpass cutoff in Hz.
func ToneCutoffHz(value float64) float64 {
	value = core.Clamp(value, 0, 1)
	return minToneHz * math.Pow(maxToneHz/minToneHz, value)
}

// SpaceEchoOption mutates construction-time controls.
type SpaceEchoOption func(*spaceEchoConfig) error

type spaceEchoConfig struct {
	controls [controlCount]float64
}

func defaultSpaceEchoConfig() spaceEchoConfig {
	var cfg spaceEchoConfig
	cfg.controls[ControlTime] = defaultEchoTime
	cfg.controls[ControlFeedback] = defaultEchoFeedback
	cfg.controls[ControlMix] = defaultEchoMix
	cfg.controls[ControlTone] = defaultEchoTone
	cfg.controls[ControlFlutter] = defaultEchoFlutter
	cfg.controls[ControlSaturation] = defaultEchoSaturation
	cfg.controls[ControlStereoWidth] = defaultEchoStereoWidth
	return cfg
}

// WithControl sets a control's initial value. The value is clamped to
// [0, 1]; only an unknown control is an error.
func WithControl(c Control, value float64) SpaceEchoOption {
	return func(cfg *spaceEchoConfig) error {
		if c < 0 || c >= controlCount {
			return fmt.Errorf("space echo: unknown control: %d", int(c))
		}
		if math.IsNaN(value) {
			return fmt.Errorf("space echo: control %s must be a number", c)
		}
		cfg.controls[c] = core.Clamp(value, 0, 1)
		return nil
	}
}

// SpaceEcho is a stereo tape-style echo: a feedback delay with
// progressive high-frequency loss, soft tape saturation in the loop,
// wow/flutter pitch modulation and a mono-to-ping-pong stereo stage.
//
// All state is owned by the instance; independent instances never share
// buffers. Processing is allocation-free and O(1) per sample. The type is
// not thread-safe: parameter setters and processing must be serialized by
// the caller.
type SpaceEcho struct {
	sampleRate  float64
	rampSamples int

	controls [controlCount]float64

	delaySamples *smooth.Value
	feedbackGain *smooth.Value
	mix          *smooth.Value
	cutoffHz     *smooth.Value
	width        *smooth.Value

	flutterDepthSamples float64

	lineL *delay.Line
	lineR *delay.Line
	toneL *onepole.Filter
	toneR *onepole.Filter

	flutter   *lfo.Flutter
	crossfeed *spatial.Crossfeed
}

// NewSpaceEcho creates an echo for the given sample rate with default
// controls and optional overrides. Construction allocates the delay-line
// storage; processing never allocates.
func NewSpaceEcho(sampleRate float64, opts ...SpaceEchoOption) (*SpaceEcho, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("space echo sample rate must be > 0: %f", sampleRate)
	}

	cfg := defaultSpaceEchoConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	lineL, err := delay.NewMaxSeconds(maxDelaySeconds+delayGuardSeconds, sampleRate)
	if err != nil {
		return nil, err
	}
	lineR, err := delay.NewMaxSeconds(maxDelaySeconds+delayGuardSeconds, sampleRate)
	if err != nil {
		return nil, err
	}

	cutoff := ToneCutoffHz(cfg.controls[ControlTone])
	toneL, err := onepole.NewLowpass(cutoff, sampleRate)
	if err != nil {
		return nil, err
	}
	toneR, err := onepole.NewLowpass(cutoff, sampleRate)
	if err != nil {
		return nil, err
	}

	flutter, err := lfo.NewFlutter(flutterRateHz, sampleRate)
	if err != nil {
		return nil, err
	}

	crossfeed, err := spatial.NewCrossfeed(cfg.controls[ControlStereoWidth])
	if err != nil {
		return nil, err
	}

	e := &SpaceEcho{
		sampleRate:  sampleRate,
		rampSamples: int(math.Round(smoothingSeconds * sampleRate)),
		lineL:       lineL,
		lineR:       lineR,
		toneL:       toneL,
		toneR:       toneR,
		flutter:     flutter,
		crossfeed:   crossfeed,
	}

	e.delaySamples = smooth.NewValue(0)
	e.feedbackGain = smooth.NewValue(0)
	e.mix = smooth.NewValue(0)
	e.cutoffHz = smooth.NewValue(cutoff)
	e.width = smooth.NewValue(0)

	for c := Control(0); c < controlCount; c++ {
		e.snapControl(c, cfg.controls[c])
	}

	return e, nil
}

// SetControl updates a control with a click-free ramp (about 50ms at the
// configured sample rate). The value is clamped to [0, 1]; NaN is treated
// as zero. Unknown controls are an error.
func (e *SpaceEcho) SetControl(c Control, value float64) error {
	return e.setControl(c, value, e.rampSamples)
}

// SnapControl updates a control immediately, bypassing the ramp. Intended
// for static configuration before processing starts.
func (e *SpaceEcho) SnapControl(c Control, value float64) error {
	return e.setControl(c, value, 0)
}

func (e *SpaceEcho) setControl(c Control, value float64, ramp int) error {
	if c < 0 || c >= controlCount {
		return fmt.Errorf("space echo: unknown control: %d", int(c))
	}
	if math.IsNaN(value) {
		value = 0
	}
	value = core.Clamp(value, 0, 1)
	e.controls[c] = value

	switch c {
	case ControlTime:
		e.delaySamples.SetTarget(DelayTimeSeconds(value)*e.sampleRate, ramp)
	case ControlFeedback:
		e.feedbackGain.SetTarget(value*feedbackCap, ramp)
	case ControlMix:
		e.mix.SetTarget(value, ramp)
	case ControlTone:
		e.cutoffHz.SetTarget(ToneCutoffHz(value), ramp)
	case ControlFlutter:
		e.flutterDepthSamples = value * maxFlutterSeconds * e.sampleRate
	case ControlSaturation:
		// Stateless; read directly from controls while processing.
	case ControlStereoWidth:
		e.width.SetTarget(value, ramp)
	}
	return nil
}

func (e *SpaceEcho) snapControl(c Control, value float64) {
	_ = e.setControl(c, value, 0)
}

// ControlValue returns the last normalized value set for the control.
func (e *SpaceEcho) ControlValue(c Control) (float64, error) {
	if c < 0 || c >= controlCount {
		return 0, fmt.Errorf("space echo: unknown control: %d", int(c))
	}
	return e.controls[c], nil
}

// SampleRate returns the sample rate in Hz.
func (e *SpaceEcho) SampleRate() float64 { return e.sampleRate }

// RampSamples returns the smoothing ramp length in samples.
func (e *SpaceEcho) RampSamples() int { return e.rampSamples }

// CurrentDelaySeconds returns the effective (smoothed, unmodulated) delay
// time in seconds.
func (e *SpaceEcho) CurrentDelaySeconds() float64 {
	return e.delaySamples.Current() / e.sampleRate
}

// Reset clears all audio state (delay lines, filters, LFO phase) and
// settles any smoothing ramps, keeping the current control values.
func (e *SpaceEcho) Reset() {
	e.lineL.Reset()
	e.lineR.Reset()
	e.toneL.Reset()
	e.toneR.Reset()
	e.flutter.Reset()

	e.delaySamples.Snap(e.delaySamples.Target())
	e.feedbackGain.Snap(e.feedbackGain.Target())
	e.mix.Snap(e.mix.Target())
	e.cutoffHz.Snap(e.cutoffHz.Target())
	e.width.Snap(e.width.Target())
}

// ProcessStereo processes one stereo frame and returns the output pair,
// hard-clipped to [-1, 1].
func (e *SpaceEcho) ProcessStereo(inL, inR float64) (float64, float64) {
	// Advance every smoothed control one step.
	delaySamp := e.delaySamples.Next()
	fbGain := e.feedbackGain.Next()
	mix := e.mix.Next()
	cutoff := e.cutoffHz.Next()
	width := e.width.Next()

	// Flutter wobbles the read position; the line clamps the final
	// delay to its valid range.
	delaySamp += e.flutter.Next(e.flutterDepthSamples)

	e.toneL.SetCutoff(cutoff)
	e.toneR.SetCutoff(cutoff)

	// Read the repeats and darken them; the filtered signal is both the
	// wet output and the recirculation source, so each pass loses highs.
	filteredL := e.toneL.ProcessSample(e.lineL.ReadFractional(delaySamp))
	filteredR := e.toneR.ProcessSample(e.lineR.ReadFractional(delaySamp))

	sat := e.controls[ControlSaturation]
	fbL := Saturate(filteredL*fbGain, sat)
	fbR := Saturate(filteredR*fbGain, sat)

	e.crossfeed.SetWidth(width)
	writeL, writeR := e.crossfeed.Route(inL, inR, fbL, fbR)
	e.lineL.Write(writeL)
	e.lineR.Write(writeR)

	outL := core.Clamp(inL*(1-mix)+filteredL*mix, -1, 1)
	outR := core.Clamp(inR*(1-mix)+filteredR*mix, -1, 1)
	return outL, outR
}

// ProcessInterleavedInPlace applies the echo to an interleaved stereo
// buffer (L, R, L, R, ...) in place. The buffer length must be even.
func (e *SpaceEcho) ProcessInterleavedInPlace(buf []float64) error {
	if len(buf)%2 != 0 {
		return fmt.Errorf("space echo: interleaved buffer length must be even: %d", len(buf))
	}

	for i := 0; i < len(buf); i += 2 {
		buf[i], buf[i+1] = e.ProcessStereo(buf[i], buf[i+1])
	}
	return nil
}

// ProcessStereoInPlace applies the echo to paired left/right buffers in
// place. Both buffers must have the same length.
func (e *SpaceEcho) ProcessStereoInPlace(left, right []float64) error {
	if len(left) != len(right) {
		return fmt.Errorf("space echo: left and right buffers must have equal length: %d != %d",
			len(left), len(right))
	}

	for i := range left {
		left[i], right[i] = e.ProcessStereo(left[i], right[i])
	}
	return nil
}
