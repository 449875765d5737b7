package wordac

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fumin/wordac/ac"
	"github.com/pkg/errors"
)

// A Format is a persisted representation of a Record.
type Format int

const (
	// Text is a line oriented format holding the bitstream as 0 and 1 characters,
	// followed by one "low high symbol" line per symbol with the symbol Go quoted.
	Text Format = iota

	// Binary is a protocol buffers wire format message with the bitstream packed eight bits per byte.
	Binary
)

// ParseFormat returns the Format named s, either "text" or "binary".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "text":
		return Text, nil
	case "binary":
		return Binary, nil
	default:
		return 0, errors.Errorf("unknown format %q", s)
	}
}

func (f Format) String() string {
	switch f {
	case Text:
		return "text"
	case Binary:
		return "binary"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// WriteRecord writes rec to w in the given format.
func WriteRecord(w io.Writer, rec *Record, format Format) error {
	switch format {
	case Text:
		return WriteText(w, rec)
	case Binary:
		b, err := rec.MarshalBinary()
		if err != nil {
			return errors.Wrap(err, "")
		}
		if _, err := w.Write(b); err != nil {
			return errors.Wrap(err, "")
		}
		return nil
	default:
		return errors.Errorf("unknown format %v", format)
	}
}

// ReadRecord reads a record in the given format from r.
func ReadRecord(r io.Reader, format Format) (*Record, error) {
	switch format {
	case Text:
		return ReadText(r)
	case Binary:
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		rec := &Record{}
		if err := rec.UnmarshalBinary(b); err != nil {
			return nil, errors.Wrap(err, "")
		}
		return rec, nil
	default:
		return nil, errors.Errorf("unknown format %v", format)
	}
}

const textMagic = "wordac"

// WriteText writes rec in the Text format:
//
//	wordac <precision> <total> <number of symbols>
//	<bits>
//	<low> <high> <quoted symbol>
//	...
func WriteText(w io.Writer, rec *Record) error {
	model := rec.Model
	if model == nil {
		model = BuildModel(nil)
	}

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%s %d %d %d\n", textMagic, rec.Precision.Bits(), model.Total(), model.Len()); err != nil {
		return errors.Wrap(err, "")
	}
	for _, b := range rec.Bits {
		c := byte('0')
		if b == 1 {
			c = '1'
		}
		if err := bw.WriteByte(c); err != nil {
			return errors.Wrap(err, "")
		}
	}
	if err := bw.WriteByte('\n'); err != nil {
		return errors.Wrap(err, "")
	}
	for i := 0; i < model.Len(); i++ {
		low, high := model.Bounds(i)
		if _, err := fmt.Fprintf(bw, "%d %d %s\n", low, high, strconv.Quote(model.Symbol(i))); err != nil {
			return errors.Wrap(err, "")
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// ReadText reads a record in the Text format.
// The symbol table is parsed field by field and validated by NewModelFromRanges,
// so a table whose ranges do not tile [0, total) yields ErrMalformedModel.
func ReadText(r io.Reader) (*Record, error) {
	br := bufio.NewReader(r)
	lineNo := 0
	readLine := func() (string, error) {
		lineNo++
		line, err := br.ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		if err == io.EOF {
			return "", errors.Wrapf(ErrFormat, "line %d: unexpected end of input", lineNo)
		}
		if err != nil {
			return "", errors.Wrap(err, "")
		}
		return strings.TrimSuffix(line, "\n"), nil
	}

	header, err := readLine()
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(header)
	if len(fields) != 4 || fields[0] != textMagic {
		return nil, errors.Wrapf(ErrFormat, "header %q", header)
	}
	bits, err := strconv.ParseUint(fields[1], 10, 8)
	if err != nil {
		return nil, errors.Wrapf(ErrFormat, "precision %q", fields[1])
	}
	p, err := ac.NewPrecision(uint(bits))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	total, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return nil, errors.Wrapf(ErrFormat, "total %q", fields[2])
	}
	n, err := strconv.ParseUint(fields[3], 10, 31)
	if err != nil {
		return nil, errors.Wrapf(ErrFormat, "number of symbols %q", fields[3])
	}

	bitLine, err := readLine()
	if err != nil {
		return nil, err
	}
	rec := &Record{Precision: p, Bits: make([]int, len(bitLine))}
	for i := 0; i < len(bitLine); i++ {
		switch bitLine[i] {
		case '0':
		case '1':
			rec.Bits[i] = 1
		default:
			return nil, errors.Wrapf(ErrFormat, "line %d: bit %d is %q", lineNo, i, bitLine[i])
		}
	}

	symbols := make([]string, 0, min(n, 1<<16))
	lows := make([]uint64, 0, min(n, 1<<16))
	highs := make([]uint64, 0, min(n, 1<<16))
	for i := uint64(0); i < n; i++ {
		line, err := readLine()
		if err != nil {
			return nil, err
		}
		parts := strings.SplitN(line, " ", 3)
		if len(parts) != 3 {
			return nil, errors.Wrapf(ErrFormat, "line %d: %q", lineNo, line)
		}
		low, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrFormat, "line %d: low %q", lineNo, parts[0])
		}
		high, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrFormat, "line %d: high %q", lineNo, parts[1])
		}
		symbol, err := strconv.Unquote(parts[2])
		if err != nil {
			return nil, errors.Wrapf(ErrFormat, "line %d: symbol %s", lineNo, parts[2])
		}
		symbols = append(symbols, symbol)
		lows = append(lows, low)
		highs = append(highs, high)
	}

	rec.Model, err = NewModelFromRanges(symbols, lows, highs, total)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return rec, nil
}
