package lfo

import (
	"math"
	"testing"
)

func TestNewFlutterValidation(t *testing.T) {
	if _, err := NewFlutter(5, 0); err == nil {
		t.Fatal("expected error for sampleRate=0")
	}
	if _, err := NewFlutter(0, 44100); err == nil {
		t.Fatal("expected error for rate=0")
	}
	if _, err := NewFlutter(30000, 44100); err == nil {
		t.Fatal("expected error for rate above Nyquist")
	}
	if _, err := NewFlutter(5, 44100); err != nil {
		t.Fatalf("NewFlutter: %v", err)
	}
}

func TestPhaseStaysWrapped(t *testing.T) {
	f, err := NewFlutter(5, 100)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 1000; i++ {
		f.Next(1)
		if p := f.Phase(); p < 0 || p >= 1 {
			t.Fatalf("call %d: phase %v outside [0,1)", i, p)
		}
	}
}

func TestOffsetBoundedByDepth(t *testing.T) {
	f, err := NewFlutter(5, 44100)
	if err != nil {
		t.Fatal(err)
	}

	const depth = 88.0
	for i := 0; i < 44100; i++ {
		if off := f.Next(depth); math.Abs(off) > depth {
			t.Fatalf("call %d: offset %v exceeds depth %v", i, off, depth)
		}
	}
}

func TestZeroDepthProducesZeroOffset(t *testing.T) {
	f, err := NewFlutter(5, 44100)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 100; i++ {
		if off := f.Next(0); off != 0 {
			t.Fatalf("call %d: got %v want 0", i, off)
		}
	}
}

func TestOscillationPeriodMatchesRate(t *testing.T) {
	const (
		sampleRate = 1000.0
		rate       = 5.0
	)

	f, err := NewFlutter(rate, sampleRate)
	if err != nil {
		t.Fatal(err)
	}

	// One full cycle is sampleRate/rate samples; after exactly that many
	// steps the phase is back at its start.
	period := int(sampleRate / rate)
	first := f.Next(1)
	for i := 1; i < period; i++ {
		f.Next(1)
	}

	if again := f.Next(1); math.Abs(again-first) > 1e-9 {
		t.Fatalf("after one period: got %v want %v", again, first)
	}
}

func TestResetRewindsPhase(t *testing.T) {
	f, err := NewFlutter(5, 44100)
	if err != nil {
		t.Fatal(err)
	}

	f.Next(1)
	f.Next(1)
	f.Reset()

	if p := f.Phase(); p != 0 {
		t.Fatalf("phase after reset: got %v want 0", p)
	}
}
