package effects

// saturationDriveRange maps the normalized saturation amount onto a
// drive of 1 (clean) to 4 (heavy tape compression).
const saturationDriveRange = 3.0

// Saturate applies an odd-symmetric bounded soft saturation emulating
// tape-head compression. amount <= 0 is the identity; otherwise the
// signal is driven into a tanh curve and scaled back, so for any finite
// input the result stays inside (-1, 1).
//
// Applied to a feedback path this makes a delay loop unconditionally
// stable: no matter the feedback gain, the magnitude that can recirculate
// is capped by the nonlinearity.
func Saturate(x, amount float64) float64 {
	if amount <= 0 {
		return x
	}
	drive := 1 + amount*saturationDriveRange
	return mathTanh(x*drive) / drive
}
