// Package echo analyzes captured echo responses offline.
//
// It locates discrete repeats in a processed impulse response and
// measures their level and spectral content. It is meant for test and
// tuning use, not for the real-time path.
package echo

import (
	"errors"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/charlesvestal/move-anything-space-delay/dsp/core"
)

// Errors returned by echo analysis functions.
var (
	ErrEmptyResponse     = errors.New("echo: response is empty")
	ErrInvalidSampleRate = errors.New("echo: sample rate must be positive")
	ErrInvalidBand       = errors.New("echo: band must lie inside (0, Nyquist)")
)

// Analyzer computes echo metrics from captured response data.
type Analyzer struct {
	SampleRate float64
}

// NewAnalyzer creates an analyzer with the given sample rate.
func NewAnalyzer(sampleRate float64) *Analyzer {
	return &Analyzer{SampleRate: sampleRate}
}

// FirstEcho returns the index and absolute level of the
// largest-magnitude sample at or after skip. Pass a skip past the dry
// portion of the response to find the first repeat.
func (a *Analyzer) FirstEcho(response []float64, skip int) (int, float64, error) {
	if len(response) == 0 {
		return 0, 0, ErrEmptyResponse
	}
	if skip < 0 {
		skip = 0
	}
	if skip >= len(response) {
		return 0, 0, ErrEmptyResponse
	}

	peakIdx := skip
	peak := math.Abs(response[skip])
	for i := skip + 1; i < len(response); i++ {
		if v := math.Abs(response[i]); v > peak {
			peak = v
			peakIdx = i
		}
	}
	return peakIdx, peak, nil
}

// EchoSeconds converts a sample index to seconds.
func (a *Analyzer) EchoSeconds(index int) float64 {
	if a.SampleRate <= 0 {
		return 0
	}
	return float64(index) / a.SampleRate
}

// Spectrum returns the magnitude spectrum of the response over the
// non-negative frequency bins [0 .. Nyquist]. The response is zero-padded
// to the next power of two; the effective FFT size is 2*(len(result)-1).
func (a *Analyzer) Spectrum(response []float64) ([]float64, error) {
	if len(response) == 0 {
		return nil, ErrEmptyResponse
	}
	if a.SampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}

	fftSize := nextPowerOf2(len(response))

	inData := make([]complex128, fftSize)
	for i, v := range response {
		inData[i] = complex(v, 0)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, err
	}

	out := make([]complex128, fftSize)
	if err := plan.Forward(out, inData); err != nil {
		return nil, err
	}

	bins := fftSize/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)
	for i := 0; i < bins; i++ {
		re[i] = real(out[i])
		im[i] = imag(out[i])
	}

	mag := make([]float64, bins)
	vecmath.Magnitude(mag, re, im)
	return mag, nil
}

// BandLevelDB returns the RMS level, in dB, of the spectrum bins between
// loHz and hiHz. mag must come from [Analyzer.Spectrum].
func (a *Analyzer) BandLevelDB(mag []float64, loHz, hiHz float64) (float64, error) {
	if len(mag) < 2 {
		return 0, ErrEmptyResponse
	}
	if a.SampleRate <= 0 {
		return 0, ErrInvalidSampleRate
	}

	nyquist := a.SampleRate / 2
	if loHz <= 0 || hiHz <= loHz || hiHz > nyquist {
		return 0, ErrInvalidBand
	}

	fftSize := 2 * (len(mag) - 1)
	binHz := a.SampleRate / float64(fftSize)

	loBin := int(math.Round(loHz / binHz))
	hiBin := int(math.Round(hiHz / binHz))
	if loBin < 1 {
		loBin = 1
	}
	if hiBin > len(mag)-1 {
		hiBin = len(mag) - 1
	}
	if hiBin < loBin {
		hiBin = loBin
	}

	var sum float64
	for i := loBin; i <= hiBin; i++ {
		sum += mag[i] * mag[i]
	}
	rms := math.Sqrt(sum / float64(hiBin-loBin+1))

	return core.LinearToDB(rms), nil
}

func nextPowerOf2(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}
