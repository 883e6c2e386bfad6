// Package interp provides fractional interpolation primitives used by
// delay-based DSP blocks.
//
//   - [Linear]:   2-point linear interpolation (cheapest)
//   - [Hermite4]: 4-point cubic Hermite (smoother, used for modulated taps)
package interp
