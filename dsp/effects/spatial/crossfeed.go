package spatial

import (
	"fmt"
	"math"

	"github.com/charlesvestal/move-anything-space-delay/dsp/core"
)

const (
	defaultCrossfeedWidth = 0.0

	// Input gain into the receiving channel at full width. Routing all
	// input energy into a single delay line would otherwise make the
	// first ping-pong repeat noticeably quieter than the mono echo.
	pingPongInputGain = 1.5
)

// Crossfeed computes the two delay-line write sources of a stereo echo
// from the raw input pair and the two post-saturation feedback sources.
//
// At width 0 both lines receive the identical mono sum, so a signal on
// either input produces an equal-level echo on both channels. At width 1
// all input is routed into the right line with a compensating gain and
// the feedback sources are fully cross-swapped, so the first repeat is
// always on the right and later repeats alternate channels. Intermediate
// widths interpolate linearly between the two routings.
type Crossfeed struct {
	width float64
}

// NewCrossfeed creates a crossfeed stage. Width must be in [0, 1].
func NewCrossfeed(width float64) (*Crossfeed, error) {
	if width < 0 || width > 1 || math.IsNaN(width) || math.IsInf(width, 0) {
		return nil, fmt.Errorf("crossfeed width must be in [0, 1]: %f", width)
	}
	return &Crossfeed{width: width}, nil
}

// SetWidth updates the width control, clamping to [0, 1]. It is cheap
// enough to call per sample with a smoothed value.
func (c *Crossfeed) SetWidth(width float64) {
	c.width = core.Clamp(width, 0, 1)
}

// Width returns the current width control.
func (c *Crossfeed) Width() float64 { return c.width }

// Route returns the values to write into the left and right delay lines
// for one frame. inL/inR are the raw input samples; fbL/fbR are the
// saturated feedback sources read from the respective lines.
func (c *Crossfeed) Route(inL, inR, fbL, fbR float64) (float64, float64) {
	w := c.width

	inMono := (inL + inR) * 0.5
	fbMono := (fbL + fbR) * 0.5

	writeL := inMono*(1-w) + (1-w)*fbMono + w*fbR
	writeR := inMono*(1+(pingPongInputGain-1)*w) + (1-w)*fbMono + w*fbL

	return writeL, writeR
}
