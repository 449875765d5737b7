package wordac

import (
	"bytes"

	"github.com/fumin/wordac/ac"
	"github.com/icza/bitio"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the Binary format. A record is the message
//
//	message Record {
//	  uint64 precision = 1;
//	  uint64 total = 2;
//	  repeated Symbol symbols = 3;
//	  uint64 bit_count = 4;
//	  bytes bits = 5;
//	}
//	message Symbol {
//	  bytes symbol = 1;
//	  uint64 low = 2;
//	  uint64 high = 3;
//	}
const (
	fieldPrecision protowire.Number = 1
	fieldTotal     protowire.Number = 2
	fieldSymbol    protowire.Number = 3
	fieldBitCount  protowire.Number = 4
	fieldBits      protowire.Number = 5

	fieldSymbolName protowire.Number = 1
	fieldSymbolLow  protowire.Number = 2
	fieldSymbolHigh protowire.Number = 3
)

// MarshalBinary encodes rec in the Binary format.
func (rec *Record) MarshalBinary() ([]byte, error) {
	model := rec.Model
	if model == nil {
		model = BuildModel(nil)
	}

	var b []byte
	b = protowire.AppendTag(b, fieldPrecision, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(rec.Precision.Bits()))
	b = protowire.AppendTag(b, fieldTotal, protowire.VarintType)
	b = protowire.AppendVarint(b, model.Total())
	for i := 0; i < model.Len(); i++ {
		low, high := model.Bounds(i)
		var sym []byte
		sym = protowire.AppendTag(sym, fieldSymbolName, protowire.BytesType)
		sym = protowire.AppendString(sym, model.Symbol(i))
		sym = protowire.AppendTag(sym, fieldSymbolLow, protowire.VarintType)
		sym = protowire.AppendVarint(sym, low)
		sym = protowire.AppendTag(sym, fieldSymbolHigh, protowire.VarintType)
		sym = protowire.AppendVarint(sym, high)

		b = protowire.AppendTag(b, fieldSymbol, protowire.BytesType)
		b = protowire.AppendBytes(b, sym)
	}

	packed, err := packBits(rec.Bits)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	b = protowire.AppendTag(b, fieldBitCount, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(len(rec.Bits)))
	b = protowire.AppendTag(b, fieldBits, protowire.BytesType)
	b = protowire.AppendBytes(b, packed)
	return b, nil
}

// UnmarshalBinary decodes a record in the Binary format into rec.
// Unknown fields and fields of an unexpected wire type are skipped, all fields other than symbols are required.
func (rec *Record) UnmarshalBinary(b []byte) error {
	var (
		precision, total, bitCount uint64
		packed                     []byte
		symbols                    []string
		lows, highs                []uint64
		seen                       = make(map[protowire.Number]bool)
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errors.Wrap(ErrFormat, protowire.ParseError(n).Error())
		}
		b = b[n:]

		switch {
		case num == fieldPrecision && typ == protowire.VarintType:
			precision, n = protowire.ConsumeVarint(b)
			seen[num] = true
		case num == fieldTotal && typ == protowire.VarintType:
			total, n = protowire.ConsumeVarint(b)
			seen[num] = true
		case num == fieldBitCount && typ == protowire.VarintType:
			bitCount, n = protowire.ConsumeVarint(b)
			seen[num] = true
		case num == fieldBits && typ == protowire.BytesType:
			packed, n = protowire.ConsumeBytes(b)
			seen[num] = true
		case num == fieldSymbol && typ == protowire.BytesType:
			var sym []byte
			sym, n = protowire.ConsumeBytes(b)
			if n < 0 {
				break
			}
			name, low, high, err := unmarshalSymbol(sym)
			if err != nil {
				return errors.Wrapf(err, "symbol %d", len(symbols))
			}
			symbols = append(symbols, name)
			lows = append(lows, low)
			highs = append(highs, high)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return errors.Wrapf(ErrFormat, "field %d: %v", num, protowire.ParseError(n))
		}
		b = b[n:]
	}

	for _, num := range []protowire.Number{fieldPrecision, fieldTotal, fieldBitCount, fieldBits} {
		if !seen[num] {
			return errors.Wrapf(ErrFormat, "missing field %d", num)
		}
	}
	if precision > uint64(ac.MaxPrecision) {
		return errors.Wrapf(ErrPrecision, "%d bits", precision)
	}
	p, err := ac.NewPrecision(uint(precision))
	if err != nil {
		return errors.Wrap(err, "")
	}
	bits, err := unpackBits(packed, bitCount)
	if err != nil {
		return errors.Wrap(err, "")
	}
	model, err := NewModelFromRanges(symbols, lows, highs, total)
	if err != nil {
		return errors.Wrap(err, "")
	}

	rec.Precision = p
	rec.Bits = bits
	rec.Model = model
	return nil
}

func unmarshalSymbol(b []byte) (string, uint64, uint64, error) {
	var (
		name      string
		low, high uint64
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", 0, 0, errors.Wrap(ErrFormat, protowire.ParseError(n).Error())
		}
		b = b[n:]

		switch {
		case num == fieldSymbolName && typ == protowire.BytesType:
			name, n = protowire.ConsumeString(b)
		case num == fieldSymbolLow && typ == protowire.VarintType:
			low, n = protowire.ConsumeVarint(b)
		case num == fieldSymbolHigh && typ == protowire.VarintType:
			high, n = protowire.ConsumeVarint(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return "", 0, 0, errors.Wrapf(ErrFormat, "field %d: %v", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return name, low, high, nil
}

// packBits packs bits eight per byte, most significant bit first, padding the last byte with zeros.
func packBits(bits []int) ([]byte, error) {
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	for i, b := range bits {
		if b != 0 && b != 1 {
			return nil, errors.Errorf("wrong bit %d at position %d", b, i)
		}
		if err := w.WriteBool(b == 1); err != nil {
			return nil, errors.Wrap(err, "")
		}
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return buf.Bytes(), nil
}

// unpackBits reverses packBits.
func unpackBits(packed []byte, count uint64) ([]int, error) {
	if count > 8*uint64(len(packed)) || uint64(len(packed)) != (count+7)/8 {
		return nil, errors.Wrapf(ErrFormat, "%d bytes hold %d bits", len(packed), count)
	}
	r := bitio.NewReader(bytes.NewReader(packed))
	bits := make([]int, count)
	for i := range bits {
		b, err := r.ReadBool()
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		if b {
			bits[i] = 1
		}
	}
	return bits, nil
}
