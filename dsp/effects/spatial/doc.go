// Package spatial provides stereo routing building blocks.
//
// Crossfeed implements the mono-to-ping-pong feed matrix used by the
// space echo: at width 0 both channels receive the same mono sum, at
// width 1 the input feeds one side and the feedback swaps sides on
// every repeat.
package spatial
