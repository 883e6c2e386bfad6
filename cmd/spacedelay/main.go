// Command spacedelay runs the space echo over raw audio or probes its
// impulse response.
//
// Usage:
//
//	spacedelay [flags]
//	spacedelay -in input.raw -out output.raw -mix 0.5 -feedback 0.6
//	spacedelay -probe -time 0.5 -tone 0.3
//
// Audio I/O is headerless interleaved stereo s16le at the configured
// sample rate ("-" means stdin/stdout). Without -in, the command runs an
// impulse probe and prints the measured echo metrics.
package main

import (
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"github.com/charlesvestal/move-anything-space-delay/dsp/core"
	"github.com/charlesvestal/move-anything-space-delay/host"
	"github.com/charlesvestal/move-anything-space-delay/measure/echo"
)

const blockFrames = 2048

func main() {
	rate := flag.Float64("rate", 44100, "sample rate in Hz")
	in := flag.String("in", "", `input raw s16le stereo file ("-" for stdin)`)
	out := flag.String("out", "-", `output file ("-" for stdout)`)
	probe := flag.Bool("probe", false, "measure the impulse response instead of processing audio")
	verbose := flag.Bool("v", false, "log instance events to stderr")

	timeCtl := flag.Float64("time", 0.4, "delay time control [0, 1] (50ms to 800ms)")
	feedback := flag.Float64("feedback", 0.4, "feedback control [0, 1]")
	mix := flag.Float64("mix", 0.35, "dry/wet mix [0, 1]")
	tone := flag.Float64("tone", 0.6, "tone control [0, 1] (500Hz to 12kHz lowpass)")
	flutter := flag.Float64("flutter", 0.15, "flutter depth [0, 1]")
	saturation := flag.Float64("saturation", 0.5, "tape saturation [0, 1]")
	width := flag.Float64("width", 0, "stereo ping-pong width [0, 1]")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: spacedelay [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Runs the space echo over raw s16le stereo audio, or probes its\n")
		fmt.Fprintf(os.Stderr, "impulse response when -in is omitted or -probe is given.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  spacedelay -in dry.raw -out wet.raw -mix 0.5 -feedback 0.6\n")
		fmt.Fprintf(os.Stderr, "  spacedelay -in - -out - -width 1 < dry.raw > wet.raw\n")
		fmt.Fprintf(os.Stderr, "  spacedelay -probe -time 0.5 -tone 0.3\n")
	}
	flag.Parse()

	cfg, err := json.Marshal(struct {
		SampleRate float64            `json:"sample_rate"`
		Params     map[string]float64 `json:"params"`
	}{
		SampleRate: *rate,
		Params: map[string]float64{
			"time":         *timeCtl,
			"feedback":     *feedback,
			"mix":          *mix,
			"tone":         *tone,
			"flutter":      *flutter,
			"saturation":   *saturation,
			"stereo_width": *width,
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var opts []host.Option
	if *verbose {
		opts = append(opts, host.WithLogger(func(msg string) {
			fmt.Fprintln(os.Stderr, msg)
		}))
	}

	inst, err := host.NewInstance(cfg, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer inst.Destroy()

	if *probe || *in == "" {
		err = runProbe(inst, *rate)
	} else {
		err = runStream(inst, *in, *out)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runStream(inst *host.Instance, inPath, outPath string) error {
	r, closeIn, err := openInput(inPath)
	if err != nil {
		return err
	}
	defer closeIn()

	w, closeOut, err := openOutput(outPath)
	if err != nil {
		return err
	}
	defer closeOut()

	raw := make([]byte, blockFrames*4)
	samples := make([]int16, blockFrames*2)
	for {
		n, err := io.ReadFull(r, raw)
		if err == io.EOF {
			return nil
		}
		if err != nil && err != io.ErrUnexpectedEOF {
			return err
		}
		n &^= 3 // whole stereo frames only
		if n == 0 {
			return nil
		}

		count := n / 2
		for i := 0; i < count; i++ {
			samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
		}
		inst.ProcessBlock(samples[:count])
		for i := 0; i < count; i++ {
			binary.LittleEndian.PutUint16(raw[i*2:], uint16(samples[i]))
		}

		if _, werr := w.Write(raw[:n]); werr != nil {
			return werr
		}
		if err == io.ErrUnexpectedEOF {
			return nil
		}
	}
}

func runProbe(inst *host.Instance, rate float64) error {
	// Let parameter ramps settle before the probe hit.
	settle := make([]int16, int(rate/10)*2)
	inst.ProcessBlock(settle)

	frames := int(rate * 2)
	buffer := make([]int16, frames*2)
	buffer[0], buffer[1] = 30000, 30000
	inst.ProcessBlock(buffer)

	left := make([]float64, frames)
	for i := range left {
		left[i] = float64(buffer[i*2]) / 32768.0
	}

	a := echo.NewAnalyzer(rate)

	// Skip the dry impulse; the shortest delay setting is 50ms.
	skip := int(0.045 * rate)
	idx, level, err := a.FirstEcho(left, skip)
	if err != nil {
		return err
	}

	mag, err := a.Spectrum(left)
	if err != nil {
		return err
	}
	lowDB, err := a.BandLevelDB(mag, 250, 1000)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "First echo\t%.1f ms\n", a.EchoSeconds(idx)*1000)
	fmt.Fprintf(tw, "Echo level\t%.1f dB\n", core.LinearToDB(level))
	fmt.Fprintf(tw, "Band 250-1000 Hz\t%.1f dB\n", lowDB)

	highEdge := math.Min(10000, 0.9*rate/2)
	if highEdge > 4000 {
		highDB, err := a.BandLevelDB(mag, 4000, highEdge)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "Band 4000-%.0f Hz\t%.1f dB\n", highEdge, highDB)
	}
	return tw.Flush()
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}
