package host

import (
	"math"
	"strings"
	"testing"

	"github.com/charlesvestal/move-anything-space-delay/dsp/effects"
)

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// runImpulseCase feeds a single stereo impulse through a fresh instance
// and returns the absolute echo levels at the expected repeat frame.
// When setWidth is false the instance keeps its default stereo width.
func runImpulseCase(t *testing.T, setWidth bool, width float64, impL, impR int16) (int, int) {
	t.Helper()

	inst, err := NewInstance([]byte(`{"sample_rate": 44100}`))
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	defer inst.Destroy()

	inst.SetParam("mix", 1.0)
	inst.SetParam("feedback", 0.0)
	inst.SetParam("tone", 1.0)
	inst.SetParam("flutter", 0.0)
	inst.SetParam("time", 0.2)
	if setWidth {
		inst.SetParam("stereo_width", width)
	}

	// Let the parameter ramps settle before probing.
	settle := make([]int16, 3000*2)
	inst.ProcessBlock(settle)

	const frames = 20000
	buffer := make([]int16, frames*2)
	buffer[0] = impL
	buffer[1] = impR
	inst.ProcessBlock(buffer)

	echoFrame := int(math.Round(effects.DelayTimeSeconds(0.2) * 44100))
	return absInt(int(buffer[echoFrame*2])), absInt(int(buffer[echoFrame*2+1]))
}

func TestPingPongLeftImpulseLandsRight(t *testing.T) {
	left, right := runImpulseCase(t, true, 1.0, 30000, 0)

	if right < 1000 || left > 500 {
		t.Fatalf("width=1 expected first echo on right only, got left=%d right=%d", left, right)
	}
	// The ping-pong input gain compensates for the mono fold-down.
	if right < 15000 {
		t.Fatalf("width=1 expected compensated wet level, got right=%d", right)
	}
}

func TestPingPongCenterImpulseLandsRight(t *testing.T) {
	left, right := runImpulseCase(t, true, 1.0, 30000, 30000)

	if right < 1000 || left > 500 {
		t.Fatalf("center input at width=1 expected first echo on right only, got left=%d right=%d",
			left, right)
	}
}

func TestZeroWidthEchoesCentered(t *testing.T) {
	left, right := runImpulseCase(t, true, 0.0, 30000, 30000)

	if left < 20000 || right < 20000 || absInt(left-right) > 500 {
		t.Fatalf("width=0 expected loud centered echo, got left=%d right=%d", left, right)
	}
}

func TestDefaultWidthEchoesCentered(t *testing.T) {
	left, right := runImpulseCase(t, false, 0, 30000, 30000)

	if left < 20000 || right < 20000 || absInt(left-right) > 500 {
		t.Fatalf("default width expected loud centered echo, got left=%d right=%d", left, right)
	}
}

func TestNewInstanceDefaults(t *testing.T) {
	inst, err := NewInstance([]byte(`{}`))
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	defer inst.Destroy()

	if !inst.Ready() {
		t.Fatal("instance not ready after NewInstance")
	}
	if inst.Name() != "Space Echo" {
		t.Fatalf("Name() = %q", inst.Name())
	}
	if got := inst.SampleRate(); got != 44100 {
		t.Fatalf("SampleRate() = %v, want 44100 default", got)
	}

	defaults := map[string]float64{
		"time":         0.4,
		"feedback":     0.4,
		"mix":          0.35,
		"tone":         0.6,
		"flutter":      0.15,
		"saturation":   0.5,
		"stereo_width": 0,
	}
	for key, want := range defaults {
		got, ok := inst.Param(key)
		if !ok {
			t.Fatalf("Param(%q) not found", key)
		}
		if got != want {
			t.Fatalf("Param(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestNewInstanceConfig(t *testing.T) {
	var logged []string
	inst, err := NewInstance(
		[]byte(`{"sample_rate": 48000, "params": {"mix": 0.8, "bogus": 1}}`),
		WithLogger(func(msg string) { logged = append(logged, msg) }),
	)
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	defer inst.Destroy()

	if got := inst.SampleRate(); got != 48000 {
		t.Fatalf("SampleRate() = %v, want 48000", got)
	}
	if v, _ := inst.Param("mix"); v != 0.8 {
		t.Fatalf("Param(mix) = %v, want 0.8", v)
	}

	foundUnknown := false
	for _, msg := range logged {
		if strings.Contains(msg, "bogus") {
			foundUnknown = true
		}
	}
	if !foundUnknown {
		t.Fatalf("unknown config param not logged: %v", logged)
	}
}

func TestNewInstanceInvalidConfig(t *testing.T) {
	if _, err := NewInstance([]byte(`{not json`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	if _, err := NewInstance([]byte(`{"sample_rate": -1}`)); err == nil {
		t.Fatal("expected error for negative sample rate")
	}

	// Empty config uses defaults.
	inst, err := NewInstance(nil)
	if err != nil {
		t.Fatalf("NewInstance(nil): %v", err)
	}
	inst.Destroy()
}

func TestSetParamClampsRoundTrip(t *testing.T) {
	inst, err := NewInstance([]byte(`{}`))
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	defer inst.Destroy()

	keys := []string{"time", "feedback", "mix", "tone", "flutter", "saturation", "stereo_width"}
	for _, key := range keys {
		inst.SetParam(key, 1.7)
		if v, _ := inst.Param(key); v != 1 {
			t.Fatalf("Param(%q) after set 1.7 = %v, want clamp to 1", key, v)
		}
		inst.SetParam(key, -0.3)
		if v, _ := inst.Param(key); v != 0 {
			t.Fatalf("Param(%q) after set -0.3 = %v, want clamp to 0", key, v)
		}
		inst.SetParam(key, 0.5)
		if v, _ := inst.Param(key); v != 0.5 {
			t.Fatalf("Param(%q) = %v, want 0.5", key, v)
		}
	}
}

func TestUnknownParamIgnored(t *testing.T) {
	var logged []string
	inst, err := NewInstance([]byte(`{}`),
		WithLogger(func(msg string) { logged = append(logged, msg) }))
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	defer inst.Destroy()

	inst.SetParam("resonance", 0.5)
	if _, ok := inst.Param("resonance"); ok {
		t.Fatal("Param(resonance) should not exist")
	}

	found := false
	for _, msg := range logged {
		if strings.Contains(msg, "resonance") {
			found = true
		}
	}
	if !found {
		t.Fatalf("unknown parameter not logged: %v", logged)
	}
}

func TestDryPassthroughAtZeroMix(t *testing.T) {
	inst, err := NewInstance([]byte(`{"params": {"mix": 0, "flutter": 0}}`))
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	defer inst.Destroy()

	// Small samples survive the int16 round trip exactly.
	buffer := []int16{100, -200, 300, -400, 500, -600}
	want := []int16{100, -200, 300, -400, 500, -600}
	inst.ProcessBlock(buffer)
	for i := range buffer {
		if buffer[i] != want[i] {
			t.Fatalf("sample %d: got %d, want %d", i, buffer[i], want[i])
		}
	}
}

func TestProcessBlockOddLength(t *testing.T) {
	inst, err := NewInstance([]byte(`{"params": {"mix": 0, "flutter": 0}}`))
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	defer inst.Destroy()

	buffer := []int16{100, 200, 300, 400, 777}
	inst.ProcessBlock(buffer)
	if buffer[4] != 777 {
		t.Fatalf("odd trailing sample modified: %d", buffer[4])
	}

	// Degenerate buffers are no-ops.
	inst.ProcessBlock(nil)
	inst.ProcessBlock([]int16{42})
}

func TestDestroyLifecycle(t *testing.T) {
	inst, err := NewInstance([]byte(`{}`))
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}

	inst.Destroy()
	if inst.Ready() {
		t.Fatal("instance ready after Destroy")
	}
	inst.Destroy() // idempotent

	buffer := []int16{1000, -1000}
	inst.ProcessBlock(buffer)
	if buffer[0] != 1000 || buffer[1] != -1000 {
		t.Fatalf("buffer modified after Destroy: %v", buffer)
	}

	inst.SetParam("mix", 1)
	if _, ok := inst.Param("mix"); ok {
		t.Fatal("Param should report false after Destroy")
	}
	if got := inst.SampleRate(); got != 0 {
		t.Fatalf("SampleRate() after Destroy = %v, want 0", got)
	}

	var nilInst *Instance
	nilInst.Destroy()
	nilInst.ProcessBlock(buffer)
	nilInst.SetParam("mix", 1)
	if nilInst.Ready() {
		t.Fatal("nil instance reports ready")
	}
}

func BenchmarkProcessBlock(b *testing.B) {
	inst, err := NewInstance([]byte(`{}`))
	if err != nil {
		b.Fatalf("NewInstance: %v", err)
	}
	defer inst.Destroy()

	buffer := make([]int16, 256*2)
	for i := range buffer {
		buffer[i] = int16((i*37)%2000 - 1000)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		inst.ProcessBlock(buffer)
	}
}
