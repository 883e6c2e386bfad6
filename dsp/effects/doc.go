// Package effects provides reusable non-I/O DSP effect kernels.
//
// The centerpiece is SpaceEcho, a stereo tape-style echo combining a
// modulated feedback delay, a one-pole tone filter, soft tape
// saturation and an optional ping-pong stereo stage. Saturate is the
// standalone waveshaper used inside the feedback loop.
//
// All effects are designed for real-time processing with
// zero-allocation hot paths.
package effects
