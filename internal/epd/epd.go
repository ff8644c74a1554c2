// Package epd reads Extended Position Description files, the format of
// perft and test suites. Files ending in .zst are decompressed on the fly.
package epd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/samber/lo"
)

var ErrSyntax = errors.New("epd: syntax error")

// Record is one EPD line: a position and its operations.
type Record struct {
	// FEN is the position with move clocks, "0 1" when the line has none.
	FEN string
	// Ops maps opcodes to operands, quotes removed.
	Ops  map[string]string
	Line int
}

// Parse parses a single EPD line. Both the four-field EPD position and a
// full six-field FEN are accepted before the operations.
func Parse(line string) (Record, error) {
	head, ops, _ := strings.Cut(line, ";")
	fields := strings.Fields(head)
	if len(fields) < 4 {
		return Record{}, fmt.Errorf("%w: %q has %d position fields", ErrSyntax, line, len(fields))
	}
	rec := Record{Ops: make(map[string]string)}
	clocks := "0 1"
	rest := fields[4:]
	if len(rest) >= 2 && isInt(rest[0]) && isInt(rest[1]) {
		clocks = rest[0] + " " + rest[1]
		rest = rest[2:]
	}

	// What follows the position up to the first ';' is the first operation.
	all := strings.Join(rest, " ")
	if ops != "" || all != "" {
		all += ";" + ops
	}
	for _, op := range strings.Split(all, ";") {
		op = strings.TrimSpace(op)
		if op == "" {
			continue
		}
		code, operand, _ := strings.Cut(op, " ")
		rec.Ops[code] = strings.Trim(strings.TrimSpace(operand), `"`)
	}
	if hm, ok := rec.Ops["hmvc"]; ok {
		fm := rec.Ops["fmvn"]
		if fm == "" {
			fm = "1"
		}
		clocks = hm + " " + fm
	}
	rec.FEN = strings.Join(fields[:4], " ") + " " + clocks
	return rec, nil
}

func isInt(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

// Perft returns the expected node count at depth from a "D<depth>"
// operation.
func (r Record) Perft(depth int) (uint64, bool) {
	v, ok := r.Ops["D"+strconv.Itoa(depth)]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 64)
	return n, err == nil
}

// MaxPerftDepth returns the deepest D operation present, 0 if none.
func (r Record) MaxPerftDepth() int {
	d := 0
	for ; ; d++ {
		if _, ok := r.Perft(d + 1); !ok {
			return d
		}
	}
}

// BestMoves returns the moves of the bm operation.
func (r Record) BestMoves() []string {
	return strings.Fields(r.Ops["bm"])
}

// ID returns the id operation.
func (r Record) ID() string { return r.Ops["id"] }

// String formats r as an EPD line with operations in sorted order.
func (r Record) String() string {
	fields := strings.Fields(r.FEN)
	if len(fields) > 4 {
		fields = fields[:4]
	}
	var sb strings.Builder
	sb.WriteString(strings.Join(fields, " "))
	for _, code := range sortedKeys(r.Ops) {
		sb.WriteString(" ")
		sb.WriteString(code)
		if v := r.Ops[code]; v != "" {
			if strings.ContainsAny(v, " ;") || code == "id" {
				v = strconv.Quote(v)
			}
			sb.WriteString(" " + v)
		}
		sb.WriteString(";")
	}
	return sb.String()
}

func sortedKeys(m map[string]string) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}

// Reader yields the records of an EPD stream, skipping blank lines and
// lines starting with '#'.
type Reader struct {
	sc      *bufio.Scanner
	line    int
	closers []func() error
}

// NewReader reads EPD lines from r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{sc: sc}
}

// Open opens path, decompressing it when the name ends in .zst.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("epd: %w", err)
	}
	if !strings.HasSuffix(path, ".zst") {
		r := NewReader(f)
		r.closers = append(r.closers, f.Close)
		return r, nil
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("epd: zstd %s: %w", path, err)
	}
	r := NewReader(dec)
	r.closers = append(r.closers, func() error { dec.Close(); return nil }, f.Close)
	return r, nil
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	for r.sc.Scan() {
		r.line++
		text := strings.TrimSpace(r.sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		rec, err := Parse(text)
		if err != nil {
			return Record{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		rec.Line = r.line
		return rec, nil
	}
	if err := r.sc.Err(); err != nil {
		return Record{}, fmt.Errorf("epd: %w", err)
	}
	return Record{}, io.EOF
}

// ReadAll returns every remaining record.
func (r *Reader) ReadAll() ([]Record, error) {
	var out []Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// WriteZst writes records to a zstd compressed EPD file.
func WriteZst(path string, records []Record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("epd: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("epd: zstd encoder: %w", err)
	}
	w := bufio.NewWriter(enc)
	for _, rec := range records {
		if _, err := w.WriteString(rec.String() + "\n"); err != nil {
			enc.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}
