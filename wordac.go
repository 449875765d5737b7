// Package wordac compresses sequences of words with arithmetic coding over a static word frequency model.
//
// The model is built from a complete pass over the input before any bit is emitted,
// and is stored next to the bitstream so that a later, independent session can decode it.
// The coding itself is done by the ac/witten package.
//
// Below is an example of using this package to compress Lincoln's Gettysburg address:
//
//	go run compress/main.go gettysburg.txt > gettys.wac
//	cat gettys.wac | go run decompress/main.go > gettys.dwac
//	go run verify/main.go gettysburg.txt gettys.dwac
package wordac

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fumin/wordac/ac"
	"github.com/fumin/wordac/ac/witten"
	"github.com/pkg/errors"
)

// Errors returned by this package, see package ac for their meanings.
var (
	ErrMalformedModel     = ac.ErrMalformedModel
	ErrUnknownSymbol      = ac.ErrUnknownSymbol
	ErrNoMatchingInterval = ac.ErrNoMatchingInterval
	ErrModelTooLarge      = ac.ErrModelTooLarge
	ErrPrecision          = ac.ErrPrecision

	// ErrFormat is returned when a persisted record cannot be parsed.
	ErrFormat = fmt.Errorf("malformed record")
)

// A Config holds the encoding parameters.
type Config struct {
	// Precision is the width in bits of the coder's code values.
	Precision uint

	// MaxAlphabet bounds the number of distinct symbols, zero means no bound.
	MaxAlphabet int

	// MaxTotal bounds the number of symbols in a record, zero means no bound.
	// Decode rejects records above it before decoding.
	MaxTotal uint64

	// Hook, if not nil, observes every interval update.
	Hook ac.Hook `json:"-"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Precision:   uint(ac.DefaultPrecision),
		MaxAlphabet: 1 << 20,
		MaxTotal:    1 << 32,
	}
}

// ParseConfig parses a JSON configuration, with fields missing from s taking their default values.
func ParseConfig(s string) (Config, error) {
	cfg := DefaultConfig()
	if err := json.Unmarshal([]byte(s), &cfg); err != nil {
		return Config{}, errors.Wrap(err, "")
	}
	if _, err := ac.NewPrecision(cfg.Precision); err != nil {
		return Config{}, errors.Wrap(err, "")
	}
	if cfg.MaxAlphabet < 0 {
		return Config{}, errors.Errorf("negative MaxAlphabet %d", cfg.MaxAlphabet)
	}
	return cfg, nil
}

// A Record is an encoded sequence together with everything needed to decode it.
type Record struct {
	Precision ac.Precision
	Bits      []int
	Model     *Model
}

// Total returns the number of encoded symbols.
func (rec *Record) Total() uint64 {
	if rec.Model == nil {
		return 0
	}
	return rec.Model.Total()
}

// Encode builds the model of symbols and encodes them.
// An empty sequence yields a record with an empty bitstream and an empty model.
func Encode(symbols []string, cfg Config) (*Record, error) {
	return EncodeModel(BuildModel(symbols), symbols, cfg)
}

// EncodeModel encodes symbols with a given model.
// ErrUnknownSymbol is returned if a symbol is not in the model.
// The model's total is the number of symbols Decode reproduces, so it should equal len(symbols).
func EncodeModel(model *Model, symbols []string, cfg Config) (*Record, error) {
	p, err := ac.NewPrecision(cfg.Precision)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := cfg.checkLimits(model); err != nil {
		return nil, err
	}
	if uint64(len(symbols)) != model.Total() {
		return nil, errors.Wrapf(ErrMalformedModel, "%d symbols, model total %d", len(symbols), model.Total())
	}

	src := make([]int, len(symbols))
	for i, s := range symbols {
		idx, ok := model.Index(s)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownSymbol, "%q at position %d", s, i)
		}
		src[i] = idx
	}

	bits, err := witten.Encode(p, model, src, cfg.Hook)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return &Record{Precision: p, Bits: bits, Model: model}, nil
}

// checkLimits returns ErrModelTooLarge if model exceeds the bounds of cfg.
func (cfg Config) checkLimits(model *Model) error {
	if cfg.MaxAlphabet > 0 && model.Len() > cfg.MaxAlphabet {
		return errors.Wrapf(ErrModelTooLarge, "%d distinct symbols, limit %d", model.Len(), cfg.MaxAlphabet)
	}
	if cfg.MaxTotal > 0 && model.Total() > cfg.MaxTotal {
		return errors.Wrapf(ErrModelTooLarge, "%d symbols, limit %d", model.Total(), cfg.MaxTotal)
	}
	return nil
}

// Decode recovers the symbols of a record.
// The record's model must be within the bounds of cfg, and cfg.Hook, if not nil, observes the decoder.
// The precision of cfg is ignored in favor of the record's own.
func Decode(rec *Record, cfg Config) ([]string, error) {
	if rec.Model == nil {
		return nil, errors.Wrap(ErrMalformedModel, "record has no model")
	}
	if err := cfg.checkLimits(rec.Model); err != nil {
		return nil, err
	}
	src, err := witten.Decode(rec.Precision, rec.Model, rec.Bits, rec.Model.Total(), cfg.Hook)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	symbols := make([]string, len(src))
	for i, idx := range src {
		symbols[i] = rec.Model.Symbol(idx)
	}
	return symbols, nil
}

// Compress encodes the words of the file name and writes the record to w.
func Compress(w io.Writer, name string, cfg Config, format Format) error {
	f, err := os.Open(name)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer f.Close()
	symbols, err := ReadSymbols(f)
	if err != nil {
		return errors.Wrap(err, "")
	}

	rec, err := Encode(symbols, cfg)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := WriteRecord(w, rec, format); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// Decompress reads a record written by Compress from r and writes the decoded words to w.
// Records exceeding the bounds of cfg are rejected before decoding.
func Decompress(w io.Writer, r io.Reader, format Format, cfg Config) error {
	rec, err := ReadRecord(r, format)
	if err != nil {
		return errors.Wrap(err, "")
	}
	symbols, err := Decode(rec, cfg)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := WriteSymbols(w, symbols); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}
