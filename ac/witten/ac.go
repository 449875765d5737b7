// Package witten implements the arithmetic coding algorithm described in
// Witten, Ian H.; Neal, Radford M.; Cleary, John G. (June 1987). "Arithmetic Coding for Data Compression". Communications of the ACM 30 (6): 520–540.
//
// Intervals are half open, [a, b), and narrowed with exact integer arithmetic
// rounding halves away from zero, so that Decode retraces Encode bit for bit.
package witten

import (
	"math/bits"
	"sort"

	"github.com/fumin/wordac/ac"
	"github.com/pkg/errors"
)

// scale returns diff*num/den rounded half away from zero.
// The product is carried in 128 bits, so any diff below 1<<63 and num <= den is exact.
func scale(diff, num, den uint64) uint64 {
	hi, lo := bits.Mul64(diff, num)
	hi = hi<<1 | lo>>63
	lo <<= 1
	var carry uint64
	lo, carry = bits.Add64(lo, den, 0)
	hi += carry
	q, _ := bits.Div64(hi, lo, 2*den)
	return q
}

// narrow returns the sub-interval of [a, b) that corresponds to the cumulative range [low, high) out of total.
func narrow(a, b, low, high, total uint64) (uint64, uint64) {
	diff := b - a
	return a + scale(diff, low, total), a + scale(diff, high, total)
}

// rescale returns the renormalization step that applies to [a, b), or zero at the fixed point.
// The step maps x to 2*(x-offset).
func rescale(p ac.Precision, a, b uint64) (kind ac.Renorm, offset uint64) {
	switch {
	case b < p.Half():
		return ac.E1, 0
	case a > p.Half():
		return ac.E2, p.Half()
	case a > p.Quarter() && b < p.ThirdQuarter():
		return ac.E3, p.Quarter()
	default:
		return 0, 0
	}
}

// An arithmeticEncoder carries the state required by an encoder.
type arithmeticEncoder struct {
	p     ac.Precision
	low   uint64
	high  uint64
	fbits uint64
	dst   []int
	hook  ac.Hook
}

func newAE(p ac.Precision, hook ac.Hook) *arithmeticEncoder {
	ae := &arithmeticEncoder{p: p, hook: hook}
	ae.high = p.Whole()
	return ae
}

func (ae *arithmeticEncoder) bitPlusFollow(bit int) {
	negbit := 0
	if bit == 0 {
		negbit = 1
	}

	ae.dst = append(ae.dst, bit)
	for ae.fbits > 0 {
		ae.dst = append(ae.dst, negbit)
		ae.fbits -= 1
	}
}

func (ae *arithmeticEncoder) renormalize() {
	for {
		kind, offset := rescale(ae.p, ae.low, ae.high)
		switch kind {
		case ac.E1:
			ae.bitPlusFollow(0)
		case ac.E2:
			ae.bitPlusFollow(1)
		case ac.E3:
			ae.fbits += 1
		default:
			return
		}

		ae.low = 2 * (ae.low - offset)
		ae.high = 2 * (ae.high - offset)
		if ae.hook != nil {
			ae.hook.Renorm(kind, ae.low, ae.high, ae.fbits)
		}
	}
}

func (ae *arithmeticEncoder) finish() {
	ae.fbits += 1
	if ae.low <= ae.p.Quarter() {
		ae.bitPlusFollow(0)
	} else {
		ae.bitPlusFollow(1)
	}
}

// Encode performs arithmetic coding on a sequence of symbols given a static model,
// and returns the encoded bits, each either 0 or 1.
// A model with a zero total encodes to an empty bitstream.
// ac.ErrUnknownSymbol is returned if a symbol in src is not in the model.
func Encode(p ac.Precision, model ac.Model, src []int, hook ac.Hook) ([]int, error) {
	if err := ac.ValidateModel(model, p); err != nil {
		return nil, err
	}
	total := model.Total()
	if total == 0 {
		if len(src) > 0 {
			return nil, errors.Wrap(ac.ErrUnknownSymbol, "model is empty")
		}
		return []int{}, nil
	}

	ae := newAE(p, hook)
	for step, sym := range src {
		if sym < 0 || sym >= model.Len() {
			return nil, errors.Wrapf(ac.ErrUnknownSymbol, "symbol %d at position %d, model has %d", sym, step, model.Len())
		}
		low, high := model.Bounds(sym)
		ae.low, ae.high = narrow(ae.low, ae.high, low, high, total)
		if ae.hook != nil {
			ae.hook.Symbol(step, sym, ae.low, ae.high)
		}
		ae.renormalize()
	}
	ae.finish()
	return ae.dst, nil
}

type arithmeticDecoder struct {
	p     ac.Precision
	low   uint64
	high  uint64
	value uint64
	src   []int
	index int
	hook  ac.Hook
}

func newAD(p ac.Precision, src []int, hook ac.Hook) *arithmeticDecoder {
	ad := &arithmeticDecoder{p: p, src: src, hook: hook}
	ad.high = p.Whole()
	for i := uint(0); i < p.Bits(); i++ {
		ad.value = 2*ad.value + ad.readDecBit()
	}
	return ad
}

// readDecBit returns the next bit of the stream.
// Bits past the end of the stream are zero, matching the padding the encoder assumes when it flushes.
func (ad *arithmeticDecoder) readDecBit() uint64 {
	var b uint64
	if ad.index < len(ad.src) {
		b = uint64(ad.src[ad.index])
	}
	ad.index++
	return b
}

// find returns the symbol whose sub-interval contains the code value, together with that sub-interval.
// Sub-intervals are contiguous and increasing in symbol order, so the symbol is located by binary search on their upper ends.
func (ad *arithmeticDecoder) find(model ac.Model) (int, uint64, uint64, error) {
	total := model.Total()
	diff := ad.high - ad.low
	n := model.Len()
	sym := sort.Search(n, func(i int) bool {
		_, high := model.Bounds(i)
		return ad.low+scale(diff, high, total) > ad.value
	})
	if sym == n {
		return -1, 0, 0, errors.Wrapf(ac.ErrNoMatchingInterval, "value %d at or above interval [%d, %d)", ad.value, ad.low, ad.high)
	}
	low, high := model.Bounds(sym)
	a0, b0 := narrow(ad.low, ad.high, low, high, total)
	if ad.value < a0 {
		return -1, 0, 0, errors.Wrapf(ac.ErrNoMatchingInterval, "value %d below interval [%d, %d)", ad.value, a0, b0)
	}
	return sym, a0, b0, nil
}

func (ad *arithmeticDecoder) renormalize() {
	for {
		kind, offset := rescale(ad.p, ad.low, ad.high)
		if kind == 0 {
			return
		}

		ad.low = 2 * (ad.low - offset)
		ad.high = 2 * (ad.high - offset)
		ad.value = 2*(ad.value-offset) + ad.readDecBit()
		if ad.hook != nil {
			ad.hook.Renorm(kind, ad.low, ad.high, 0)
		}
	}
}

// Decode decodes n symbols from bits produced by Encode.
// Decode expects that model and p are exactly the ones used in Encode.
// Missing trailing bits are read as zeros.
// ac.ErrNoMatchingInterval is returned if the bitstream does not correspond to any sequence of the model.
// The decoder reports no pending bits to hook.
func Decode(p ac.Precision, model ac.Model, src []int, n uint64, hook ac.Hook) ([]int, error) {
	if err := ac.ValidateModel(model, p); err != nil {
		return nil, err
	}
	if n == 0 {
		return []int{}, nil
	}
	if model.Total() == 0 {
		return nil, errors.Wrapf(ac.ErrNoMatchingInterval, "%d symbols requested from an empty model", n)
	}
	for i, b := range src {
		if b != 0 && b != 1 {
			return nil, errors.Errorf("wrong bit %d at position %d", b, i)
		}
	}

	dst := make([]int, 0, min(n, 1<<16))
	ad := newAD(p, src, hook)
	for i := uint64(0); i < n; i++ {
		sym, a0, b0, err := ad.find(model)
		if err != nil {
			return nil, errors.Wrapf(err, "symbol %d", i)
		}
		ad.low, ad.high = a0, b0
		if ad.hook != nil {
			ad.hook.Symbol(int(i), sym, ad.low, ad.high)
		}
		dst = append(dst, sym)
		ad.renormalize()
	}
	return dst, nil
}
