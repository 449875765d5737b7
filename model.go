package wordac

import (
	"sort"

	"github.com/fumin/wordac/ac"
	"github.com/pkg/errors"
)

// A SymbolCount is the number of occurrences of a symbol.
type SymbolCount struct {
	Symbol string
	Count  uint64
}

// A Model is a static cumulative distribution over string symbols.
// Symbols are kept in canonical order, which is the byte-wise lexicographic order of sort.Strings,
// and symbol i owns the range [low[i], high[i]) of [0, total).
// Model implements ac.Model.
type Model struct {
	symbols []string
	low     []uint64
	high    []uint64
	total   uint64
	index   map[string]int
}

// BuildModel counts the occurrences of each symbol in a single scan of symbols,
// and assigns cumulative ranges in canonical order.
// The total of the returned model equals len(symbols).
func BuildModel(symbols []string) *Model {
	counts := make(map[string]uint64)
	for _, s := range symbols {
		counts[s]++
	}
	sorted := make([]string, 0, len(counts))
	for s := range counts {
		sorted = append(sorted, s)
	}
	sort.Strings(sorted)

	m := newModel(len(sorted))
	for _, s := range sorted {
		m.push(s, counts[s])
	}
	return m
}

// NewModelFromCounts returns the model of an explicit list of symbol counts.
// The list may be in any order; it is sorted canonically before ranges are assigned.
// Duplicate symbols or zero counts yield ac.ErrMalformedModel.
func NewModelFromCounts(counts []SymbolCount) (*Model, error) {
	sorted := append([]SymbolCount(nil), counts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Symbol < sorted[j].Symbol })

	m := newModel(len(sorted))
	for i, sc := range sorted {
		if i > 0 && sorted[i-1].Symbol == sc.Symbol {
			return nil, errors.Wrapf(ac.ErrMalformedModel, "duplicate symbol %q", sc.Symbol)
		}
		if sc.Count == 0 {
			return nil, errors.Wrapf(ac.ErrMalformedModel, "symbol %q has zero count", sc.Symbol)
		}
		if m.total+sc.Count < m.total {
			return nil, errors.Wrapf(ac.ErrModelTooLarge, "total overflows at symbol %q", sc.Symbol)
		}
		m.push(sc.Symbol, sc.Count)
	}
	return m, nil
}

// NewModelFromRanges returns the model of persisted cumulative ranges.
// Symbols must be strictly increasing in canonical order,
// and the ranges [low[i], high[i]) must tile [0, total) without gaps or overlaps.
// Otherwise ac.ErrMalformedModel is returned.
func NewModelFromRanges(symbols []string, low, high []uint64, total uint64) (*Model, error) {
	if len(low) != len(symbols) || len(high) != len(symbols) {
		return nil, errors.Wrapf(ac.ErrMalformedModel, "%d symbols, %d lows, %d highs", len(symbols), len(low), len(high))
	}
	m := newModel(len(symbols))
	for i, s := range symbols {
		if i > 0 && symbols[i-1] >= s {
			return nil, errors.Wrapf(ac.ErrMalformedModel, "symbol %q does not follow %q in canonical order", s, symbols[i-1])
		}
		if low[i] != m.total {
			return nil, errors.Wrapf(ac.ErrMalformedModel, "symbol %q starts at %d, want %d", s, low[i], m.total)
		}
		if high[i] <= low[i] {
			return nil, errors.Wrapf(ac.ErrMalformedModel, "symbol %q has empty range [%d, %d)", s, low[i], high[i])
		}
		m.push(s, high[i]-low[i])
	}
	if m.total != total {
		return nil, errors.Wrapf(ac.ErrMalformedModel, "ranges end at %d, total is %d", m.total, total)
	}
	return m, nil
}

func newModel(n int) *Model {
	return &Model{
		symbols: make([]string, 0, n),
		low:     make([]uint64, 0, n),
		high:    make([]uint64, 0, n),
		index:   make(map[string]int, n),
	}
}

func (m *Model) push(s string, count uint64) {
	m.index[s] = len(m.symbols)
	m.symbols = append(m.symbols, s)
	m.low = append(m.low, m.total)
	m.total += count
	m.high = append(m.high, m.total)
}

// Len returns the number of distinct symbols.
func (m *Model) Len() int { return len(m.symbols) }

// Total returns the total count, which is the length of the sequence the model was built from.
func (m *Model) Total() uint64 { return m.total }

// Bounds returns the cumulative range of the i-th symbol in canonical order.
func (m *Model) Bounds(i int) (uint64, uint64) { return m.low[i], m.high[i] }

// Symbol returns the i-th symbol in canonical order.
func (m *Model) Symbol(i int) string { return m.symbols[i] }

// Symbols returns the symbols in canonical order.
func (m *Model) Symbols() []string { return append([]string(nil), m.symbols...) }

// Index returns the position of s in canonical order.
func (m *Model) Index(s string) (int, bool) {
	i, ok := m.index[s]
	return i, ok
}

// Range returns the cumulative range of s.
func (m *Model) Range(s string) (low, high uint64, ok bool) {
	i, ok := m.index[s]
	if !ok {
		return 0, 0, false
	}
	return m.low[i], m.high[i], true
}

// Counts returns the symbol counts in canonical order.
func (m *Model) Counts() []SymbolCount {
	counts := make([]SymbolCount, len(m.symbols))
	for i, s := range m.symbols {
		counts[i] = SymbolCount{Symbol: s, Count: m.high[i] - m.low[i]}
	}
	return counts
}

// CDFLow returns the lower end of each symbol's cumulative range.
func (m *Model) CDFLow() map[string]uint64 {
	cdf := make(map[string]uint64, len(m.symbols))
	for i, s := range m.symbols {
		cdf[s] = m.low[i]
	}
	return cdf
}

// CDFHigh returns the upper end of each symbol's cumulative range.
func (m *Model) CDFHigh() map[string]uint64 {
	cdf := make(map[string]uint64, len(m.symbols))
	for i, s := range m.symbols {
		cdf[s] = m.high[i]
	}
	return cdf
}
