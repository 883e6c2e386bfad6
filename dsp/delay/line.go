package delay

import (
	"fmt"
	"math"

	"github.com/charlesvestal/move-anything-space-delay/dsp/interp"
)

// Line is a circular delay line with fractional-sample reads.
//
// The write cursor advances monotonically modulo the capacity; fractional
// reads are clamped to [1, capacity-2] so a read can never land on the
// sample the cursor is about to overwrite, and the interpolation neighbor
// is always valid.
type Line struct {
	buffer   []float64
	writePos int
}

// New returns a delay line of fixed size in samples.
func New(size int) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay size must be > 0: %d", size)
	}
	return &Line{buffer: make([]float64, size)}, nil
}

// NewMaxSeconds returns a delay line sized to hold maxSeconds of audio at
// sampleRate, with a few samples of guard for modulated fractional reads.
func NewMaxSeconds(maxSeconds, sampleRate float64) (*Line, error) {
	if maxSeconds <= 0 || math.IsNaN(maxSeconds) || math.IsInf(maxSeconds, 0) {
		return nil, fmt.Errorf("delay max time must be > 0: %f", maxSeconds)
	}
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("delay sample rate must be > 0: %f", sampleRate)
	}
	return New(int(math.Ceil(maxSeconds*sampleRate)) + 4)
}

// Len returns internal buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// MaxDelay returns the largest fractional delay in samples that Read
// variants will honor before clamping.
func (d *Line) MaxDelay() float64 {
	return float64(len(d.buffer) - 2)
}

// Write stores one sample and advances the write cursor.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample
	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read reads an integer delay in samples. Read(1) is the most recently
// written sample.
func (d *Line) Read(delay int) float64 {
	size := len(d.buffer)
	if size == 0 {
		return 0
	}
	readPos := (d.writePos - delay + size) % size
	if readPos < 0 {
		readPos += size
	}
	return d.buffer[readPos]
}

// ReadFractional reads a fractional delay in samples with linear
// interpolation between the two nearest stored samples. The delay is
// clamped to [1, capacity-2].
func (d *Line) ReadFractional(delay float64) float64 {
	if len(d.buffer) == 0 {
		return 0
	}
	delay = d.clampDelay(delay)

	p := int(math.Floor(delay))
	t := delay - float64(p)

	return interp.Linear(t, d.Read(p), d.Read(p+1))
}

// ReadFractionalHermite reads a fractional delay with cubic Hermite
// interpolation. It is smoother than ReadFractional under heavy delay-time
// modulation at roughly twice the per-read cost.
func (d *Line) ReadFractionalHermite(delay float64) float64 {
	if len(d.buffer) == 0 {
		return 0
	}
	delay = d.clampDelay(delay)

	p := int(math.Floor(delay))
	t := delay - float64(p)

	xm1 := d.Read(maxInt(1, p-1))
	x0 := d.Read(p)
	x1 := d.Read(p + 1)
	x2 := d.Read(p + 2)
	return interp.Hermite4(t, xm1, x0, x1, x2)
}

// Reset clears line state.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}

func (d *Line) clampDelay(delay float64) float64 {
	if delay < 1 {
		return 1
	}
	if max := d.MaxDelay(); delay > max {
		return max
	}
	return delay
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
