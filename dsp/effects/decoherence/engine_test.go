package decoherence

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/cwbudde/algo-qchannel/dsp/filter/biquad"
	"github.com/cwbudde/algo-qchannel/dsp/filter/design"
	"github.com/cwbudde/algo-qchannel/dsp/param"
	"github.com/cwbudde/algo-qchannel/dsp/quantum"
	"github.com/cwbudde/algo-qchannel/internal/testutil"
	timestats "github.com/cwbudde/algo-qchannel/stats/time"
)

const (
	testRate  = 48000.0
	testBlock = 480
)

var allModes = []Mode{ModeMono, ModeLeftRight, ModeMidSide, ModeTransientSustain}

type settings struct {
	dephase, damp, mix float64
	autoGain           bool
	mode               Mode
}

func newTestEngine(t testing.TB, s settings, opts ...Option) *Engine {
	t.Helper()

	store := param.NewDefaultStore()
	apply(t, store, s)

	opts = append([]Option{WithSampleRate(testRate), WithBlockSize(testBlock)}, opts...)

	e, err := New(store, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return e
}

func apply(t testing.TB, store *param.Store, s settings) {
	t.Helper()

	ag := 0.0
	if s.autoGain {
		ag = 1
	}

	mode := s.mode
	if mode == 0 {
		mode = ModeMono
	}

	for id, v := range map[string]float64{
		param.Dephase:  s.dephase,
		param.Damping:  s.damp,
		param.Mix:      s.mix,
		param.AutoGain: ag,
		param.Mode:     float64(mode - 1),
	} {
		if err := store.Set(id, v); err != nil {
			t.Fatalf("Set(%s): %v", id, err)
		}
	}
}

// run processes the planar input block by block and returns the output.
func run(e *Engine, in [][]float64, outputs, block int) [][]float64 {
	numInputs := len(in)
	length := 0

	if numInputs > 0 {
		length = len(in[0])
	}

	out := make([][]float64, outputs)
	for ch := range out {
		out[ch] = make([]float64, length)
	}

	buf := make([][]float64, outputs)
	for ch := range buf {
		buf[ch] = make([]float64, block)
	}

	for start := 0; start < length; start += block {
		n := min(block, length-start)
		for ch := range buf {
			buf[ch] = buf[ch][:n]
			if ch < numInputs {
				copy(buf[ch], in[ch][start:start+n])
			} else {
				clear(buf[ch])
			}
		}

		e.Process(buf, min(numInputs, outputs))

		for ch := range buf {
			copy(out[ch][start:], buf[ch])
		}
	}

	return out
}

func TestModeFromIndex(t *testing.T) {
	tests := []struct {
		index int
		want  Mode
	}{
		{0, ModeMono},
		{1, ModeLeftRight},
		{2, ModeMidSide},
		{3, ModeTransientSustain},
		{4, ModeMono},
		{-1, ModeMono},
	}

	for _, tt := range tests {
		if got := ModeFromIndex(tt.index); got != tt.want {
			t.Errorf("ModeFromIndex(%d) = %v, want %v", tt.index, got, tt.want)
		}
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"zero sample rate", []Option{WithSampleRate(0)}},
		{"nan sample rate", []Option{WithSampleRate(math.NaN())}},
		{"zero block", []Option{WithBlockSize(0)}},
		{"negative crossover", []Option{WithCrossoverFreq(-1)}},
		{"crossover above nyquist", []Option{WithSampleRate(1000), WithCrossoverFreq(800)}},
		{"nil random source", []Option{WithRandomSource(nil)}},
		{"negative ramp", []Option{WithRampTimes(-1, 0.05)}},
		{"invalid policy", []Option{WithPolicy(quantum.Policy{Dephase: 7})}},
		{"invalid split", []Option{WithSplit(Split(5))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(nil, tt.opts...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNew_MissingParameter(t *testing.T) {
	store, err := param.NewStore(param.FloatSpec(param.Dephase, "Dephase", 0, 1, 0, 0))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := New(store); !errors.Is(err, param.ErrUnknownParam) {
		t.Fatalf("error = %v, want ErrUnknownParam", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	e, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}

	if e.Policy() != quantum.PolicyCharacter {
		t.Errorf("Policy() = %v, want character", e.Policy())
	}

	if e.SampleRate() != 48000 {
		t.Errorf("SampleRate() = %v", e.SampleRate())
	}

	if e.Params() == nil {
		t.Fatal("Params() = nil")
	}

	if e.TailLengthSeconds() != 0 || e.AcceptsMIDI() {
		t.Fatal("unexpected plugin metadata")
	}
}

func TestSupportsLayout(t *testing.T) {
	tests := []struct {
		in, out int
		want    bool
	}{
		{1, 1, true},
		{2, 2, true},
		{1, 2, false},
		{0, 1, false},
		{3, 3, false},
	}

	for _, tt := range tests {
		if got := SupportsLayout(tt.in, tt.out); got != tt.want {
			t.Errorf("SupportsLayout(%d, %d) = %v, want %v", tt.in, tt.out, got, tt.want)
		}
	}
}

func TestProcess_BypassIdentity(t *testing.T) {
	left := testutil.DeterministicNoise(1, 0.8, 2000)
	right := testutil.DeterministicNoise(2, 0.8, 2000)

	for _, policy := range []quantum.Policy{quantum.PolicyCharacter, quantum.PolicyPrecision} {
		t.Run(policy.String(), func(t *testing.T) {
			mono := newTestEngine(t, settings{mix: 1, mode: ModeMono}, WithPolicy(policy))
			out := run(mono, [][]float64{left}, 1, testBlock)
			testutil.RequireSliceNearlyEqual(t, out[0], left, 1e-15)

			lr := newTestEngine(t, settings{mix: 1, mode: ModeLeftRight}, WithPolicy(policy))
			out = run(lr, [][]float64{left, right}, 2, testBlock)
			testutil.RequireSliceNearlyEqual(t, out[0], left, 1e-15)
			testutil.RequireSliceNearlyEqual(t, out[1], right, 1e-15)

			ms := newTestEngine(t, settings{mix: 1, mode: ModeMidSide}, WithPolicy(policy))
			out = run(ms, [][]float64{left, right}, 2, testBlock)
			testutil.RequireSliceNearlyEqual(t, out[0], left, 1e-14)
			testutil.RequireSliceNearlyEqual(t, out[1], right, 1e-14)
		})
	}
}

func TestProcess_NearSilentBlockStaysQuiet(t *testing.T) {
	in := testutil.DeterministicSine(440, testRate, 1e-9, 4*testBlock)

	e := newTestEngine(t, settings{dephase: 0.5, damp: 0.8, mix: 1, mode: ModeMono},
		WithPolicy(quantum.PolicyPrecision))
	out := run(e, [][]float64{in}, 1, testBlock)

	if peak := timestats.Peak(out[0]); peak > 1e-8 {
		t.Fatalf("peak = %v, near-silent input was amplified", peak)
	}
}

func TestProcess_Bounded(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 8))
	left := testutil.DeterministicNoise(3, 1, 4096)
	right := testutil.DeterministicSine(300, testRate, 1, 4096)
	left[10], left[11], right[12] = 1, -1, -1

	for _, policy := range []quantum.Policy{quantum.PolicyCharacter, quantum.PolicyPrecision} {
		for _, mode := range allModes {
			for range 4 {
				s := settings{
					dephase:  r.Float64(),
					damp:     r.Float64(),
					mix:      r.Float64(),
					autoGain: r.IntN(2) == 1,
					mode:     mode,
				}
				e := newTestEngine(t, s, WithPolicy(policy))

				for _, outputs := range []int{1, 2} {
					in := [][]float64{left, right}[:outputs]
					out := run(e, in, outputs, 256)

					for ch := range out {
						testutil.RequireBounded(t, out[ch], 1000)
					}
				}
			}
		}
	}
}

func TestProcess_MidSideRoundTrip(t *testing.T) {
	left := testutil.DeterministicNoise(4, 1, 1500)
	right := testutil.DeterministicNoise(5, 1, 1500)

	// Mix 0 passes the encoded mid/side pair straight to the decoder.
	e := newTestEngine(t, settings{dephase: 0.7, damp: 0.7, mix: 0, mode: ModeMidSide})
	out := run(e, [][]float64{left, right}, 2, testBlock)

	testutil.RequireSliceNearlyEqual(t, out[0], left, 1e-14)
	testutil.RequireSliceNearlyEqual(t, out[1], right, 1e-14)
}

func TestProcess_MidSideMonoOutputEmitsMid(t *testing.T) {
	in := testutil.DeterministicNoise(6, 0.5, 960)
	e := newTestEngine(t, settings{mix: 0, mode: ModeMidSide})

	out := run(e, [][]float64{in}, 1, testBlock)
	testutil.RequireSliceNearlyEqual(t, out[0], in, 0)
}

func TestProcess_TransientSustainComplementaryReconstruction(t *testing.T) {
	left := testutil.DeterministicNoise(9, 0.9, 5000)
	right := testutil.DeterministicSine(220, testRate, 0.7, 5000)

	for _, s := range []settings{
		{mix: 0, mode: ModeTransientSustain},
		{dephase: 0.9, damp: 0.9, mix: 0, mode: ModeTransientSustain},
	} {
		e := newTestEngine(t, s, WithSplit(SplitComplementary))
		out := run(e, [][]float64{left, right}, 2, 333)

		testutil.RequireSliceNearlyEqual(t, out[0], left, 1e-12)
		testutil.RequireSliceNearlyEqual(t, out[1], right, 1e-12)
	}
}

func TestProcess_TransientSustainPairedMatchesBands(t *testing.T) {
	left := testutil.DeterministicNoise(10, 0.9, 4000)
	right := testutil.DeterministicNoise(11, 0.9, 4000)

	e := newTestEngine(t, settings{dephase: 0.5, damp: 0.5, mix: 0, mode: ModeTransientSustain})
	out := run(e, [][]float64{left, right}, 2, 500)

	lp, hp, err := design.SplitPair(defaultCrossoverFreq, testRate)
	if err != nil {
		t.Fatal(err)
	}

	for ch, in := range [][]float64{left, right} {
		low, high := biquad.NewSection(lp), biquad.NewSection(hp)
		want := make([]float64, len(in))

		for i, x := range in {
			want[i] = high.ProcessSample(x) + low.ProcessSample(x)
		}

		testutil.RequireSliceNearlyEqual(t, out[ch], want, 1e-12)
	}
}

func TestProcess_TransientSustainPairedReconstructsAwayFromCrossover(t *testing.T) {
	for _, freq := range []float64{50, 10000} {
		in := testutil.DeterministicSine(freq, testRate, 0.5, 48000)
		e := newTestEngine(t, settings{mix: 0, mode: ModeTransientSustain})

		out := run(e, [][]float64{in, in}, 2, testBlock)

		// Skip the filter settling time.
		ratio := timestats.RMS(out[0][24000:]) / timestats.RMS(in[24000:])
		if math.Abs(ratio-1) > 0.01 {
			t.Errorf("%v Hz: level ratio = %v, want ≈1", freq, ratio)
		}
	}
}

func TestProcess_TransientSustainKeepsTransientsDry(t *testing.T) {
	in := testutil.DeterministicSine(12000, testRate, 0.5, 9600)

	dry := newTestEngine(t, settings{mix: 0, mode: ModeTransientSustain})
	wet := newTestEngine(t, settings{dephase: 1, damp: 0.5, mix: 1, mode: ModeTransientSustain})

	a := run(dry, [][]float64{in}, 1, testBlock)
	b := run(wet, [][]float64{in}, 1, testBlock)

	// Above the crossover nearly all energy is in the dry transient band.
	diff, _ := testutil.MaxAbsDiff(a[0][4800:], b[0][4800:])
	if diff > 0.05 {
		t.Fatalf("high band changed by %v", diff)
	}
}

func TestProcess_AutoGainConvergence(t *testing.T) {
	const blocks = 7 // 70 ms

	for _, tc := range []struct {
		freq  float64
		block int
	}{
		{1000, testBlock},
		{1000, 240},
		{997, 512},
	} {
		in := testutil.DeterministicSine(tc.freq, testRate, 0.5, blocks*testBlock)

		e := newTestEngine(t, settings{damp: 0.8, mix: 1, autoGain: true, mode: ModeMono})
		out := run(e, [][]float64{in}, 1, tc.block)

		// The 50 ms gain ramp has finished before this 60-70 ms window.
		last := (blocks - 1) * testBlock
		inRMS := timestats.RMS(in[last:])
		outRMS := timestats.RMS(out[0][last:])

		if math.Abs(outRMS/inRMS-1) > 0.05 {
			t.Fatalf("%v Hz, block %d: output RMS %v not within 5%% of input RMS %v",
				tc.freq, tc.block, outRMS, inRMS)
		}
	}

	const tail = 30 // 300 ms

	in := testutil.DeterministicSine(1000, testRate, 0.5, tail*testBlock)
	last := (tail - 1) * testBlock
	inRMS := timestats.RMS(in[last:])

	e := newTestEngine(t, settings{damp: 0.8, mix: 1, autoGain: true, mode: ModeMono})
	run(e, [][]float64{in}, 1, testBlock)

	m := e.Metrics()
	if m.Gain >= 1 || m.Gain < MinGainCompensation {
		t.Fatalf("gain = %v, want attenuation", m.Gain)
	}

	// Without compensation the driven signal is clearly louder.
	plain := newTestEngine(t, settings{damp: 0.8, mix: 1, mode: ModeMono})
	raw := run(plain, [][]float64{in}, 1, testBlock)

	if r := timestats.RMS(raw[0][last:]) / inRMS; r < 1.5 {
		t.Fatalf("uncompensated ratio = %v, expected saturation makeup", r)
	}
}

func TestProcess_MonoFallback(t *testing.T) {
	in := testutil.DeterministicNoise(12, 0.6, 1440)
	s := settings{dephase: 0.4, damp: 0.6, mix: 0.8, autoGain: true}
	precision := WithPolicy(quantum.PolicyPrecision)

	ref := newTestEngine(t, settings{dephase: s.dephase, damp: s.damp, mix: s.mix, autoGain: true, mode: ModeMono}, precision)
	want := run(ref, [][]float64{in}, 1, testBlock)[0]

	s.mode = ModeLeftRight
	single := newTestEngine(t, s, precision)
	got := run(single, [][]float64{in}, 1, testBlock)[0]
	testutil.RequireSliceNearlyEqual(t, got, want, 1e-12)

	stereo := newTestEngine(t, s, precision)
	out := run(stereo, [][]float64{in}, 2, testBlock)
	testutil.RequireSliceNearlyEqual(t, out[0], want, 1e-12)
	testutil.RequireSliceNearlyEqual(t, out[1], want, 1e-12)
}

func TestProcess_MonoSumsAndFansOut(t *testing.T) {
	left := testutil.DC(0.25, testBlock)
	right := testutil.DC(0.5, testBlock)

	e := newTestEngine(t, settings{mix: 1, mode: ModeMono})
	out := run(e, [][]float64{left, right}, 2, testBlock)

	for ch := range out {
		testutil.RequireSliceNearlyEqual(t, out[ch], testutil.DC(0.75, testBlock), 0)
	}
}

func TestProcess_ClearsMissingInputs(t *testing.T) {
	for _, mode := range allModes {
		e := newTestEngine(t, settings{dephase: 0.5, damp: 0.5, mix: 1, autoGain: true, mode: mode})
		buf := [][]float64{testutil.DC(0.3, 64), testutil.DC(-0.7, 64)}

		e.Process(buf, 0)

		for ch := range buf {
			testutil.RequireSliceNearlyEqual(t, buf[ch], make([]float64, 64), 0)
		}
	}
}

func TestProcess_MixRamp(t *testing.T) {
	in := testutil.DeterministicSine(440, testRate, 0.5, 2*testBlock)
	e := newTestEngine(t, settings{damp: 1, mix: 1, mode: ModeMono})

	first := [][]float64{append([]float64(nil), in[:testBlock]...)}
	e.Process(first, 1)

	_ = e.Params().Set(param.Mix, 0)

	second := [][]float64{append([]float64(nil), in[testBlock:]...)}
	e.Process(second, 1)

	ramp := int(testRate * defaultParamRamp)
	if second[0][0] == in[testBlock] {
		t.Fatal("mix jumped to dry without ramping")
	}

	testutil.RequireSliceNearlyEqual(t, second[0][ramp:], in[testBlock+ramp:], 0)
}

func TestProcess_BlockSizeChanges(t *testing.T) {
	e := newTestEngine(t, settings{dephase: 0.3, damp: 0.3, mix: 1, mode: ModeTransientSustain})
	in := testutil.DeterministicNoise(13, 0.5, 5000)

	for _, size := range []int{testBlock, 1, 1024, 17, 2048} {
		out := run(e, [][]float64{in, in}, 2, size)
		testutil.RequireBounded(t, out[0], 100)
	}
}

func TestProcess_ModeSwitchMidStream(t *testing.T) {
	e := newTestEngine(t, settings{dephase: 0.6, damp: 0.6, mix: 0.5})
	in := testutil.DeterministicNoise(14, 0.8, testBlock)

	for i := range 16 {
		_ = e.Params().Set(param.Mode, float64(i%4))

		buf := [][]float64{append([]float64(nil), in...), append([]float64(nil), in...)}
		e.Process(buf, 2)

		if got := e.Metrics().Mode; got != ModeFromIndex(i%4) {
			t.Fatalf("block %d: mode = %v", i, got)
		}

		testutil.RequireBounded(t, buf[0], 100)
		testutil.RequireBounded(t, buf[1], 100)
	}
}

func TestProcess_Deterministic(t *testing.T) {
	in := testutil.DeterministicNoise(15, 0.8, 2000)
	s := settings{dephase: 0.8, damp: 0.2, mix: 1, mode: ModeLeftRight}

	a := run(newTestEngine(t, s, WithSeed(99)), [][]float64{in, in}, 2, testBlock)
	b := run(newTestEngine(t, s, WithSeed(99)), [][]float64{in, in}, 2, testBlock)
	c := run(newTestEngine(t, s, WithRandomSource(rand.New(rand.NewPCG(1, 1)))), [][]float64{in, in}, 2, testBlock)

	testutil.RequireSliceNearlyEqual(t, a[0], b[0], 0)

	if d, _ := testutil.MaxAbsDiff(a[0], c[0]); d == 0 {
		t.Fatal("different random sources produced identical output")
	}
}

func TestPrepare(t *testing.T) {
	e := newTestEngine(t, settings{mix: 1})

	if err := e.Prepare(-1, 128); err == nil {
		t.Fatal("expected error for negative sample rate")
	}

	if err := e.Prepare(44100, 0); err != nil {
		t.Fatalf("Prepare with zero block size: %v", err)
	}

	if e.SampleRate() != 44100 {
		t.Fatalf("SampleRate() = %v", e.SampleRate())
	}

	if err := e.Prepare(44100, 256); err != nil {
		t.Fatal(err)
	}

	if err := e.Prepare(1200, 256); err == nil {
		t.Fatal("expected error for crossover above Nyquist")
	}
}

func TestResetAndMetrics(t *testing.T) {
	e := newTestEngine(t, settings{damp: 0.8, mix: 1, autoGain: true, mode: ModeMono})
	in := testutil.DeterministicSine(1000, testRate, 0.5, 10*testBlock)
	run(e, [][]float64{in}, 1, testBlock)

	m := e.Metrics()
	if m.InputRMS <= 0 || m.OutputRMS <= 0 || m.Gain == 1 || m.Mode != ModeMono {
		t.Fatalf("unexpected metrics %+v", m)
	}

	e.Reset()

	if m := e.Metrics(); m.InputRMS != 0 || m.OutputRMS != 0 || m.Gain != 1 {
		t.Fatalf("metrics after Reset = %+v", m)
	}
}

func TestProcess_ZeroAlloc(t *testing.T) {
	for _, mode := range allModes {
		for _, policy := range []quantum.Policy{quantum.PolicyCharacter, quantum.PolicyPrecision} {
			e := newTestEngine(t, settings{dephase: 0.5, damp: 0.5, mix: 0.7, autoGain: true, mode: mode}, WithPolicy(policy))
			buf := [][]float64{
				testutil.DeterministicNoise(16, 0.5, testBlock),
				testutil.DeterministicNoise(17, 0.5, testBlock),
			}

			allocs := testing.AllocsPerRun(50, func() {
				e.Process(buf, 2)
			})
			if allocs != 0 {
				t.Fatalf("%v/%v: allocs = %v, want 0", mode, policy, allocs)
			}
		}
	}
}

func TestGainTarget(t *testing.T) {
	tests := []struct {
		name          string
		enabled       bool
		inRMS, outRMS float64
		want          float64
	}{
		{"disabled", false, 0.5, 0.25, 1},
		{"ratio", true, 0.5, 0.25, 2},
		{"clamp high", true, 1, 0.01, 10},
		{"clamp low", true, 0.01, 1, 0.1},
		{"silent input", true, 1e-7, 0.5, 1},
		{"silent output", true, 0.5, 1e-7, 1},
		{"nan", true, math.NaN(), 0.5, 1},
	}

	for _, tt := range tests {
		if got := GainTarget(tt.enabled, tt.inRMS, tt.outRMS); got != tt.want {
			t.Errorf("%s: GainTarget() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
