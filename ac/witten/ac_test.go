package witten

import (
	"math/rand"
	"testing"

	"github.com/fumin/wordac/ac"
	"github.com/pkg/errors"
)

func TestEncodeFreqModel(t *testing.T) {
	// Skewed model.
	testEncode(t, 32, NewFreqModel(300, 20, 5, 1), 5000)

	// Uniform model over bytes.
	counts := make([]uint64, 256)
	for i := range counts {
		counts[i] = 1
	}
	testEncode(t, 32, NewFreqModel(counts...), 5000)

	// A single symbol never narrows the interval.
	testEncode(t, 32, NewFreqModel(1000), 1000)

	// The smallest precision with the largest total it admits.
	testEncode(t, 8, NewFreqModel(60, 3, 1), 64)

	// The largest precision.
	testEncode(t, 62, NewFreqModel(1<<40, 3, 1<<20), 5000)
}

func testEncode(t *testing.T, bits uint, model *FreqModel, n int) {
	p, err := ac.NewPrecision(bits)
	if err != nil {
		t.Fatalf("%v", err)
	}
	x := model.Sample(rand.New(rand.NewSource(int64(bits))), n)

	encoded, err := Encode(p, model, x, nil)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	t.Logf("precision %d: encoded bits: %d, symbols: %d", bits, len(encoded), len(x))

	decoded, err := Decode(p, model, encoded, uint64(len(x)), nil)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	// Check that the decoded result is correct.
	if len(x) != len(decoded) {
		t.Fatalf("%d != %d", len(x), len(decoded))
	}
	for i, b := range x {
		if decoded[i] != b {
			t.Errorf("%d: %d != %d", i, b, decoded[i])
		}
	}
}

func TestEncodeWorkedExample(t *testing.T) {
	model := NewFreqModel(3, 1)
	encoded, err := Encode(ac.DefaultPrecision, model, []int{0, 1, 0, 0}, nil)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	expected := []int{1, 0, 0, 1}
	if len(encoded) != len(expected) {
		t.Fatalf("%v != %v", encoded, expected)
	}
	for i := range expected {
		if encoded[i] != expected[i] {
			t.Fatalf("%v != %v", encoded, expected)
		}
	}
}

func TestEncodeDegenerate(t *testing.T) {
	prev := 0
	for _, n := range []int{1, 10, 1000, 100000} {
		model := NewFreqModel(uint64(n))
		x := make([]int, n)
		encoded, err := Encode(ac.DefaultPrecision, model, x, nil)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if prev != 0 && len(encoded) > prev+20 {
			t.Errorf("%d symbols: %d bits, previously %d", n, len(encoded), prev)
		}
		prev = len(encoded)

		decoded, err := Decode(ac.DefaultPrecision, model, encoded, uint64(n), nil)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if len(decoded) != n {
			t.Fatalf("%d != %d", len(decoded), n)
		}
	}
}

func TestEncodeEmpty(t *testing.T) {
	model := NewFreqModel()
	encoded, err := Encode(ac.DefaultPrecision, model, nil, nil)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(encoded) != 0 {
		t.Fatalf("%v", encoded)
	}
	decoded, err := Decode(ac.DefaultPrecision, model, encoded, 0, nil)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(decoded) != 0 {
		t.Fatalf("%v", decoded)
	}
}

func TestEncodeUnknownSymbol(t *testing.T) {
	model := NewFreqModel(2, 2)
	for _, sym := range []int{-1, 2} {
		_, err := Encode(ac.DefaultPrecision, model, []int{0, sym}, nil)
		if !errors.Is(err, ac.ErrUnknownSymbol) {
			t.Errorf("%d: %v", sym, err)
		}
	}

	_, err := Encode(ac.DefaultPrecision, NewFreqModel(), []int{0}, nil)
	if !errors.Is(err, ac.ErrUnknownSymbol) {
		t.Errorf("%v", err)
	}
}

func TestEncodeModelTooLarge(t *testing.T) {
	p, err := ac.NewPrecision(8)
	if err != nil {
		t.Fatalf("%v", err)
	}
	_, err = Encode(p, NewFreqModel(60, 5), []int{0}, nil)
	if !errors.Is(err, ac.ErrModelTooLarge) {
		t.Errorf("%v", err)
	}
}

func TestDecodeNoMatchingInterval(t *testing.T) {
	p := ac.DefaultPrecision
	model := NewFreqModel(1, 1)

	// A code value of Whole lies outside [0, Whole).
	ones := make([]int, p.Bits())
	for i := range ones {
		ones[i] = 1
	}
	_, err := Decode(p, model, ones, 1, nil)
	if !errors.Is(err, ac.ErrNoMatchingInterval) {
		t.Errorf("%v", err)
	}

	_, err = Decode(p, NewFreqModel(), nil, 1, nil)
	if !errors.Is(err, ac.ErrNoMatchingInterval) {
		t.Errorf("%v", err)
	}
}

func TestDecodeWrongBit(t *testing.T) {
	_, err := Decode(ac.DefaultPrecision, NewFreqModel(1, 1), []int{0, 2}, 1, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
}

// TestIntervalInvariant checks that 0 <= a < b <= Whole holds after every narrowing and every renormalization step,
// and that the encoder and decoder visit identical states.
func TestIntervalInvariant(t *testing.T) {
	for _, bits := range []uint{8, 16, 32} {
		p, err := ac.NewPrecision(bits)
		if err != nil {
			t.Fatalf("%v", err)
		}
		model := NewFreqModel(40, 17, 5, 1, 1)
		x := model.Sample(rand.New(rand.NewSource(1)), 2000)

		eh := &recordHook{t: t, p: p}
		encoded, err := Encode(p, model, x, eh)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		dh := &recordHook{t: t, p: p}
		if _, err := Decode(p, model, encoded, uint64(len(x)), dh); err != nil {
			t.Fatalf("%+v", err)
		}

		if len(eh.states) != len(dh.states) {
			t.Fatalf("%d: %d != %d", bits, len(eh.states), len(dh.states))
		}
		for i := range eh.states {
			if eh.states[i] != dh.states[i] {
				t.Fatalf("%d: state %d: %+v != %+v", bits, i, eh.states[i], dh.states[i])
			}
		}
		if eh.symbols != len(x) {
			t.Errorf("%d != %d", eh.symbols, len(x))
		}
	}
}

type state struct {
	kind ac.Renorm
	a, b uint64
}

type recordHook struct {
	t       *testing.T
	p       ac.Precision
	symbols int
	states  []state
}

func (h *recordHook) check(a, b uint64) {
	if !(a < b && b <= h.p.Whole()) {
		h.t.Fatalf("invariant broken: a %d b %d whole %d", a, b, h.p.Whole())
	}
}

func (h *recordHook) Symbol(step int, sym int, a, b uint64) {
	h.check(a, b)
	h.symbols++
	h.states = append(h.states, state{a: a, b: b})
}

func (h *recordHook) Renorm(kind ac.Renorm, a, b uint64, pending uint64) {
	h.check(a, b)
	h.states = append(h.states, state{kind: kind, a: a, b: b})
}

// TestCorruption flips single bits of an encoded stream.
// A flip must either fail with ac.ErrNoMatchingInterval or change the decoded output,
// except for flips in the final flush bits which may be redundant.
func TestCorruption(t *testing.T) {
	p := ac.DefaultPrecision
	model := NewFreqModel(50, 30, 15, 5)
	x := model.Sample(rand.New(rand.NewSource(2)), 500)
	encoded, err := Encode(p, model, x, nil)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	var detected, undetected int
	for i := range encoded {
		flipped := append([]int(nil), encoded...)
		flipped[i] ^= 1
		decoded, err := Decode(p, model, flipped, uint64(len(x)), nil)
		if err != nil {
			if !errors.Is(err, ac.ErrNoMatchingInterval) {
				t.Fatalf("%d: %+v", i, err)
			}
			detected++
			continue
		}
		same := true
		for j := range x {
			if decoded[j] != x[j] {
				same = false
				break
			}
		}
		if same {
			undetected++
		} else {
			detected++
		}
	}
	t.Logf("bits %d, detected %d, undetected %d", len(encoded), detected, undetected)
}

func TestScale(t *testing.T) {
	tests := []struct {
		diff, num, den uint64
		expected       uint64
	}{
		{1, 1, 2, 1},
		{3, 1, 2, 2},
		{5, 1, 4, 1},
		{7, 1, 4, 2},
		{6, 1, 4, 2},
		{10, 0, 7, 0},
		{10, 7, 7, 10},
		{1<<62 - 1, 1 << 60, 1 << 60, 1<<62 - 1},
		{1<<62 - 1, 1, 2, 1 << 61},
	}
	for _, tt := range tests {
		if got := scale(tt.diff, tt.num, tt.den); got != tt.expected {
			t.Errorf("scale(%d, %d, %d) = %d, expected %d", tt.diff, tt.num, tt.den, got, tt.expected)
		}
	}
}

// FreqModel is a static model given by symbol counts.
type FreqModel struct {
	cum []uint64
}

func NewFreqModel(counts ...uint64) *FreqModel {
	m := &FreqModel{cum: make([]uint64, len(counts)+1)}
	for i, c := range counts {
		m.cum[i+1] = m.cum[i] + c
	}
	return m
}

func (m *FreqModel) Len() int { return len(m.cum) - 1 }

func (m *FreqModel) Total() uint64 { return m.cum[len(m.cum)-1] }

func (m *FreqModel) Bounds(i int) (uint64, uint64) { return m.cum[i], m.cum[i+1] }

// Sample draws n symbols distributed according to the model.
func (m *FreqModel) Sample(rng *rand.Rand, n int) []int {
	x := make([]int, n)
	for i := range x {
		r := uint64(rng.Int63n(int64(m.Total())))
		for s := 0; s < m.Len(); s++ {
			if _, high := m.Bounds(s); r < high {
				x[i] = s
				break
			}
		}
	}
	return x
}
