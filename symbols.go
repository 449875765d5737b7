package wordac

import (
	"bufio"
	"io"
	"log"

	"github.com/fumin/wordac/ac"
	"github.com/pkg/errors"
)

// maxWordSize bounds the length of a single word read by ReadSymbols.
const maxWordSize = 1 << 20

// ReadSymbols returns the whitespace separated words of r.
func ReadSymbols(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxWordSize)
	scanner.Split(bufio.ScanWords)
	symbols := []string{}
	for scanner.Scan() {
		symbols = append(symbols, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return symbols, nil
}

// WriteSymbols writes symbols separated by spaces and terminated by a newline.
// Nothing is written for an empty sequence.
func WriteSymbols(w io.Writer, symbols []string) error {
	if len(symbols) == 0 {
		return nil
	}
	bw := bufio.NewWriter(w)
	for i, s := range symbols {
		if i > 0 {
			if err := bw.WriteByte(' '); err != nil {
				return errors.Wrap(err, "")
			}
		}
		if _, err := bw.WriteString(s); err != nil {
			return errors.Wrap(err, "")
		}
	}
	if err := bw.WriteByte('\n'); err != nil {
		return errors.Wrap(err, "")
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// Verify compares two sequences and returns the first position where they differ.
// If one is a prefix of the other, the position is the length of the shorter one.
// ok is true, and pos is -1, if the sequences are equal.
func Verify(x, y []string) (pos int, ok bool) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	for i := 0; i < n; i++ {
		if x[i] != y[i] {
			return i, false
		}
	}
	if len(x) != len(y) {
		return n, false
	}
	return -1, true
}

// A LogHook logs every interval update of an encoder or decoder.
type LogHook struct {
	Logger *log.Logger
}

var _ ac.Hook = (*LogHook)(nil)

func (h *LogHook) logger() *log.Logger {
	if h.Logger == nil {
		return log.Default()
	}
	return h.Logger
}

// Symbol logs the interval after a symbol is coded.
func (h *LogHook) Symbol(step int, sym int, a, b uint64) {
	h.logger().Printf("symbol %d: %d [%d, %d)", step, sym, a, b)
}

// Renorm logs the interval after a renormalization step.
func (h *LogHook) Renorm(kind ac.Renorm, a, b uint64, pending uint64) {
	h.logger().Printf("%v [%d, %d) pending %d", kind, a, b, pending)
}
