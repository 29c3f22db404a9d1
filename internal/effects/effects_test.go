// SPDX-License-Identifier: MIT
package effects

import (
	"errors"
	"math"
	"strings"
	"testing"

	"noiseless/internal/audio"
	"noiseless/pkg/utils"
)

const testSampleRate = 44100

func peak(x []float64) float64 {
	var p float64
	for _, v := range x {
		p = math.Max(p, math.Abs(v))
	}
	return p
}

func TestChainOrderIsFixed(t *testing.T) {
	c, err := NewChain(DefaultParams(), testSampleRate)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"noise_gate", "compressor", "low_shelf", "gain"}
	got := c.Stages()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Stages() = %v, want %v", got, want)
	}

	var seen []string
	c.OnStage = func(name string, index, total int) {
		if total != len(want) {
			t.Errorf("total = %d, want %d", total, len(want))
		}
		seen = append(seen, name)
	}
	if err := c.Apply(audio.NewMono(testSampleRate, make([]float64, 64))); err != nil {
		t.Fatal(err)
	}
	if strings.Join(seen, ",") != strings.Join(want, ",") {
		t.Errorf("OnStage order = %v, want %v", seen, want)
	}
}

func TestFlatChainIsTransparent(t *testing.T) {
	x := utils.Mix(
		utils.SineWave(testSampleRate, testSampleRate, 440, -3),
		utils.WhiteNoise(testSampleRate, -30, 5),
	)
	buf := audio.NewMono(testSampleRate, append([]float64(nil), x...))

	c, err := NewChain(FlatParams(), testSampleRate)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Apply(buf); err != nil {
		t.Fatal(err)
	}

	const epsilon = 1e-9
	for i := range x {
		if d := math.Abs(buf.Channels[0][i] - x[i]); d > epsilon {
			t.Fatalf("sample %d moved by %g (> %g)", i, d, epsilon)
		}
	}
}

func TestChainSilenceStaysSilent(t *testing.T) {
	buf := audio.NewBuffer(testSampleRate, 2, testSampleRate)
	c, err := NewChain(DefaultParams(), testSampleRate)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Apply(buf); err != nil {
		t.Fatal(err)
	}
	for ch, data := range buf.Channels {
		for i, s := range data {
			if s != 0 {
				t.Fatalf("channel %d sample %d = %v, want 0", ch, i, s)
			}
		}
	}
}

func TestChainEmptyBuffer(t *testing.T) {
	c, _ := NewChain(DefaultParams(), testSampleRate)
	err := c.Apply(audio.NewMono(testSampleRate, nil))
	if !errors.Is(err, audio.ErrEmptyAudio) {
		t.Errorf("expected ErrEmptyAudio, got %v", err)
	}
}

func TestNewChainValidation(t *testing.T) {
	tests := []struct {
		desc          string
		mutate        func(p *Params)
		errorContains string
	}{
		{"gate ratio", func(p *Params) { p.Gate.Ratio = 0.5 }, "gate ratio"},
		{"negative release", func(p *Params) { p.Gate.ReleaseMs = -1 }, "release"},
		{"compressor ratio", func(p *Params) { p.Compressor.Ratio = 0 }, "compressor ratio"},
		{"cutoff above nyquist", func(p *Params) { p.LowShelf.CutoffHz = 30000 }, "cutoff"},
		{"zero q", func(p *Params) { p.LowShelf.Q = 0 }, "q must be"},
		{"nan gate threshold", func(p *Params) { p.Gate.ThresholdDb = math.NaN() }, "gate threshold must be finite"},
		{"nan gate ratio", func(p *Params) { p.Gate.Ratio = math.NaN() }, "gate ratio"},
		{"nan compressor threshold", func(p *Params) { p.Compressor.ThresholdDb = math.NaN() }, "compressor threshold must be finite"},
		{"inf compressor release", func(p *Params) { p.Compressor.ReleaseMs = math.Inf(1) }, "release"},
		{"nan cutoff", func(p *Params) { p.LowShelf.CutoffHz = math.NaN() }, "cutoff"},
		{"nan q", func(p *Params) { p.LowShelf.Q = math.NaN() }, "q must be"},
		{"inf shelf gain", func(p *Params) { p.LowShelf.GainDb = math.Inf(-1) }, "low shelf gain must be finite"},
		{"nan makeup gain", func(p *Params) { p.Gain.GainDb = math.NaN() }, "gain must be finite"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			_, err := NewChain(p, testSampleRate)
			if err == nil || !strings.Contains(err.Error(), tt.errorContains) {
				t.Errorf("error %v does not contain %q", err, tt.errorContains)
			}
			if verr := p.Validate(testSampleRate); verr == nil {
				t.Error("Validate() accepted invalid params")
			}
		})
	}
}

func TestGainStage(t *testing.T) {
	x := []float64{0.1, -0.05, 0}
	NewGain(GainParams{GainDb: 20}).Process(x)
	want := []float64{1, -0.5, 0}
	for i := range want {
		if math.Abs(x[i]-want[i]) > 1e-12 {
			t.Errorf("x[%d] = %v, want %v", i, x[i], want[i])
		}
	}
}

func TestLowShelfResponse(t *testing.T) {
	f, err := NewLowShelf(ShelfParams{CutoffHz: 250, GainDb: 5, Q: 1}, testSampleRate)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		freq, wantDb, tol float64
	}{
		{10, 5, 0.1},
		{250, 2.5, 0.1},
		{10000, 0, 0.1},
	}
	for _, tt := range tests {
		if got := f.MagnitudeDb(tt.freq, testSampleRate); math.Abs(got-tt.wantDb) > tt.tol {
			t.Errorf("response at %.0f Hz = %.2f dB, want %.2f", tt.freq, got, tt.wantDb)
		}
	}
}

func TestLowShelfBoostsLowTone(t *testing.T) {
	f, _ := NewLowShelf(ShelfParams{CutoffHz: 250, GainDb: 5, Q: 1}, testSampleRate)

	low := utils.SineWave(testSampleRate, testSampleRate, 50, -20)
	f.Process(low)
	got := 20 * math.Log10(peak(low[testSampleRate/2:])/0.1)
	if math.Abs(got-5) > 0.3 {
		t.Errorf("50 Hz gain = %.2f dB, want about 5 dB", got)
	}
}

func TestLowShelfIsStable(t *testing.T) {
	f, _ := NewLowShelf(ShelfParams{CutoffHz: 20, GainDb: 24, Q: 4}, testSampleRate)
	x := make([]float64, 4*testSampleRate)
	x[0] = 1
	f.Process(x)

	tail := x[len(x)-testSampleRate:]
	if p := peak(tail); p > 1e-9 || math.IsNaN(p) {
		t.Errorf("impulse response has not decayed, tail peak %g", p)
	}
}

func TestNoiseGateAttenuatesQuietSignal(t *testing.T) {
	g, err := NewNoiseGate(GateParams{ThresholdDb: -20, Ratio: 2, AttackMs: 1, ReleaseMs: 50}, testSampleRate)
	if err != nil {
		t.Fatal(err)
	}

	// -40 dBFS peak is about -43 dB RMS, 23 dB under the threshold.
	quiet := utils.SineWave(testSampleRate, testSampleRate, 1000, -40)
	g.Process(quiet)
	got := 20 * math.Log10(peak(quiet[testSampleRate/2:]))
	if got > -57 || got < -66 {
		t.Errorf("gated level = %.1f dBFS, want about -60", got)
	}

	g.Reset()
	loud := utils.SineWave(testSampleRate, testSampleRate, 1000, -6)
	orig := append([]float64(nil), loud...)
	g.Process(loud)
	for i := testSampleRate / 2; i < len(loud); i++ {
		if loud[i] != orig[i] {
			t.Fatalf("sample %d above threshold changed: %v -> %v", i, orig[i], loud[i])
		}
	}
}

func TestNoiseGateReleaseFades(t *testing.T) {
	g, _ := NewNoiseGate(GateParams{ThresholdDb: -20, Ratio: 4, AttackMs: 1, ReleaseMs: 200}, testSampleRate)

	loud := utils.SineWave(testSampleRate/2, testSampleRate, 1000, -6)
	quiet := utils.SineWave(3*testSampleRate/2, testSampleRate, 1000, -50)
	x := append(loud, quiet...)
	g.Process(x)

	// 10 ms after the drop the envelope is still above the threshold.
	early := peak(x[testSampleRate/2+400 : testSampleRate/2+450])
	late := peak(x[len(x)-500:])
	quietPeak := math.Pow(10, -50.0/20)
	if early < 0.9*quietPeak {
		t.Errorf("gate closed instantly: early peak %g, input %g", early, quietPeak)
	}
	if late > 0.01*quietPeak {
		t.Errorf("gate never closed: late peak %g", late)
	}
}

func TestCompressorReducesPeaks(t *testing.T) {
	c, err := NewCompressor(CompressorParams{ThresholdDb: -10, Ratio: 3, AttackMs: 1, ReleaseMs: 100}, testSampleRate)
	if err != nil {
		t.Fatal(err)
	}

	x := utils.SineWave(testSampleRate, testSampleRate, 1000, 0)
	c.Process(x)

	// 10 dB over the threshold at 3:1 leaves 3.33 dB over, a 6.67 dB cut.
	got := 20 * math.Log10(peak(x[testSampleRate/2:]))
	if math.Abs(got+6.67) > 0.5 {
		t.Errorf("compressed peak = %.2f dBFS, want about -6.67", got)
	}

	c.Reset()
	below := utils.SineWave(testSampleRate, testSampleRate, 1000, -20)
	orig := append([]float64(nil), below...)
	c.Process(below)
	for i := range below {
		if below[i] != orig[i] {
			t.Fatalf("sample %d below threshold changed", i)
		}
	}
}

func TestProcessZeroAllocs(t *testing.T) {
	c, _ := NewChain(DefaultParams(), testSampleRate)
	x := utils.WhiteNoise(4096, -20, 1)

	for _, stage := range c.stages {
		allocs := testing.AllocsPerRun(50, func() {
			stage.Process(x)
		})
		if allocs > 0 {
			t.Errorf("%s.Process allocated: %.1f allocs", stage.Name(), allocs)
		}
	}
}

func BenchmarkChainApply(b *testing.B) {
	c, _ := NewChain(DefaultParams(), testSampleRate)
	x := utils.WhiteNoise(testSampleRate, -20, 1)
	buf := audio.NewMono(testSampleRate, make([]float64, len(x)))

	b.ReportAllocs()
	for b.Loop() {
		copy(buf.Channels[0], x)
		_ = c.Apply(buf)
	}
}
