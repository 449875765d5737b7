// Package ac defines the parameters, model interface and errors the arithmetic coding algorithm requires.
// See its subpackages for particular finite precision realizations of the algorithm.
package ac

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrMalformedModel is returned when the cumulative ranges of a model do not tile [0, total).
	ErrMalformedModel = fmt.Errorf("malformed model")

	// ErrUnknownSymbol is returned when encoding a symbol that is not in the model.
	ErrUnknownSymbol = fmt.Errorf("unknown symbol")

	// ErrNoMatchingInterval is returned when the decoder finds no symbol whose range contains the code value.
	// It signals a corrupted bitstream or a model that does not belong to the bitstream.
	ErrNoMatchingInterval = fmt.Errorf("no matching interval")

	// ErrModelTooLarge is returned when a model has more symbols than the precision or configuration allows.
	ErrModelTooLarge = fmt.Errorf("model too large")

	// ErrPrecision is returned for an unsupported precision.
	ErrPrecision = fmt.Errorf("invalid precision")
)

const (
	// MinPrecision is the smallest supported code value width in bits.
	MinPrecision uint = 8

	// MaxPrecision is the largest supported code value width in bits.
	// Interval bounds are doubled during renormalization, so they must stay below 1<<63.
	MaxPrecision uint = 62

	// DefaultPrecision is the code value width used when none is given.
	DefaultPrecision Precision = 32
)

// A Precision is the width in bits of the code values the coder operates on.
//
// The interval lives in [0, Whole] with Whole = 2^bits - 1.
// Quarter and Half are Whole/4 and Whole/2 rounded up, so that rescaling an interval
// from the upper half never leaves [0, Whole].
type Precision uint

// NewPrecision returns the Precision of the given width, or ErrPrecision if it is out of range.
func NewPrecision(bits uint) (Precision, error) {
	p := Precision(bits)
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return p, nil
}

// Validate reports whether p is within [MinPrecision, MaxPrecision].
func (p Precision) Validate() error {
	if uint(p) < MinPrecision || uint(p) > MaxPrecision {
		return errors.Wrapf(ErrPrecision, "%d bits, want [%d, %d]", uint(p), MinPrecision, MaxPrecision)
	}
	return nil
}

// Bits returns the width of the code values.
func (p Precision) Bits() uint { return uint(p) }

// Whole returns 2^bits - 1, the upper bound of the coding interval.
func (p Precision) Whole() uint64 { return (uint64(1) << p) - 1 }

// Quarter returns the first quarter point of the coding interval.
func (p Precision) Quarter() uint64 { return uint64(1) << (p - 2) }

// Half returns the midpoint of the coding interval.
func (p Precision) Half() uint64 { return 2 * p.Quarter() }

// ThirdQuarter returns the third quarter point of the coding interval.
func (p Precision) ThirdQuarter() uint64 { return 3 * p.Quarter() }

// MaxTotal returns the largest total count a model may have at this precision.
// After renormalization the interval is at least a Quarter wide,
// so a total of at most Quarter leaves every symbol a nonempty sub-interval.
func (p Precision) MaxTotal() uint64 { return p.Quarter() }

// A Model is a static cumulative frequency model over symbols numbered 0 to Len()-1,
// as expected by the arithmetic coding algorithm.
// Symbols are numbered in canonical order, and their ranges tile [0, Total()).
type Model interface {
	// Len returns the number of distinct symbols.
	Len() int

	// Total returns the sum of all symbol counts.
	Total() uint64

	// Bounds returns the cumulative range [low, high) of the i-th symbol.
	Bounds(i int) (low, high uint64)
}

// A Renorm identifies a renormalization step.
type Renorm int

const (
	// E1 rescales an interval lying in the lower half.
	E1 Renorm = iota + 1
	// E2 rescales an interval lying in the upper half.
	E2
	// E3 rescales an interval straddling the midpoint.
	E3
)

func (r Renorm) String() string {
	switch r {
	case E1:
		return "E1"
	case E2:
		return "E2"
	case E3:
		return "E3"
	default:
		return fmt.Sprintf("Renorm(%d)", int(r))
	}
}

// A Hook observes the interval state of an encoder or decoder.
// A nil Hook disables instrumentation.
type Hook interface {
	// Symbol is called after the interval is narrowed to the step-th symbol sym.
	Symbol(step int, sym int, a, b uint64)

	// Renorm is called after each renormalization step, with the number of pending bits.
	Renorm(kind Renorm, a, b uint64, pending uint64)
}

// ValidateModel checks that the ranges of m tile [0, m.Total()) in order with nonzero counts,
// and that the total fits precision p.
func ValidateModel(m Model, p Precision) error {
	if err := p.Validate(); err != nil {
		return err
	}
	var next uint64
	for i := 0; i < m.Len(); i++ {
		low, high := m.Bounds(i)
		if low != next {
			return errors.Wrapf(ErrMalformedModel, "symbol %d starts at %d, want %d", i, low, next)
		}
		if high <= low {
			return errors.Wrapf(ErrMalformedModel, "symbol %d has empty range [%d, %d)", i, low, high)
		}
		next = high
	}
	if next != m.Total() {
		return errors.Wrapf(ErrMalformedModel, "ranges end at %d, total is %d", next, m.Total())
	}
	if m.Total() > p.MaxTotal() {
		return errors.Wrapf(ErrModelTooLarge, "total %d exceeds %d at %d bits", m.Total(), p.MaxTotal(), uint(p))
	}
	return nil
}
