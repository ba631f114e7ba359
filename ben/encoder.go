package ben

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"math/bits"
	"slices"
)

// Encoder writes a BEN stream. In a MKVCHAIN stream, identical consecutive assignments given to Write collapse
// into one record whose repetition count is the number of times it was seen. A STANDARD stream has no counts and
// writes every sample as its own record.
type Encoder struct {
	w       *bufio.Writer
	markov  bool
	pending []uint16
	reps    uint16
	buf     []byte
}

func NewEncoder(w io.Writer, banner string) (*Encoder, error) {
	if banner != StandardBanner && banner != MarkovBanner {
		return nil, ErrBadHeader
	}
	e := &Encoder{w: bufio.NewWriter(w), markov: banner == MarkovBanner}
	if _, err := e.w.WriteString(banner); err != nil {
		return nil, err
	}
	return e, nil
}

// Write adds one sample.
func (e *Encoder) Write(assignment []uint16) error {
	if len(assignment) == 0 {
		return errors.New("empty assignment")
	}
	if !e.markov {
		return e.writeRecord(assignment, 1)
	}
	if e.pending != nil && slices.Equal(e.pending, assignment) {
		e.reps++
		if e.reps == MaxReps {
			return e.flush()
		}
		return nil
	}
	if err := e.flush(); err != nil {
		return err
	}
	e.pending = slices.Clone(assignment)
	e.reps = 1
	return nil
}

// WriteRecord writes a record with an explicit repetition count, after anything pending from Write.
// A STANDARD stream repeats the record Reps times instead.
func (e *Encoder) WriteRecord(r Record) error {
	if len(r.Assignment) == 0 {
		return errors.New("empty assignment")
	}
	if r.Reps == 0 {
		return errors.New("zero repetition count")
	}
	if err := e.flush(); err != nil {
		return err
	}
	if !e.markov {
		for i := uint16(0); i < r.Reps; i++ {
			if err := e.writeRecord(r.Assignment, 1); err != nil {
				return err
			}
		}
		return nil
	}
	return e.writeRecord(r.Assignment, r.Reps)
}

// Close writes anything pending and flushes. It does not close the underlying writer.
func (e *Encoder) Close() error {
	if err := e.flush(); err != nil {
		return err
	}
	return e.w.Flush()
}

func (e *Encoder) flush() error {
	if e.pending == nil {
		return nil
	}
	err := e.writeRecord(e.pending, e.reps)
	e.pending = nil
	e.reps = 0
	return err
}

func (e *Encoder) writeRecord(assignment []uint16, reps uint16) error {
	e.buf = appendRecord(e.buf[:0], assignment)
	if e.markov {
		e.buf = binary.BigEndian.AppendUint16(e.buf, reps)
	}
	_, err := e.w.Write(e.buf)
	return err
}

type run struct {
	val uint16
	len uint16
}

// Run-length encodes, splitting runs that would overflow a u16 length.
func runs(assignment []uint16) []run {
	var out []run
	for i := 0; i < len(assignment); {
		j := i + 1
		for j < len(assignment) && assignment[j] == assignment[i] && j-i < math.MaxUint16 {
			j++
		}
		out = append(out, run{val: assignment[i], len: uint16(j - i)})
		i = j
	}
	return out
}

// Appends the record header and payload; the repetition trailer is up to the caller.
func appendRecord(dst []byte, assignment []uint16) []byte {
	rl := runs(assignment)
	var maxVal, maxLen uint16
	for _, r := range rl {
		maxVal = max(maxVal, r.val)
		maxLen = max(maxLen, r.len)
	}
	valBits := max(uint(bits.Len16(maxVal)), 1)
	lenBits := uint(bits.Len16(maxLen))
	pairBits := valBits + lenBits
	nBytes := (uint64(pairBits)*uint64(len(rl)) + 7) / 8

	dst = append(dst, uint8(valBits), uint8(lenBits))
	dst = binary.BigEndian.AppendUint32(dst, uint32(nBytes))

	var acc uint64
	var accBits uint
	for _, r := range rl {
		acc = acc<<pairBits | uint64(r.val)<<lenBits | uint64(r.len)
		accBits += pairBits
		for accBits >= 8 {
			accBits -= 8
			dst = append(dst, byte(acc>>accBits))
		}
		acc &= uint64(1)<<accBits - 1
	}
	if accBits > 0 {
		dst = append(dst, byte(acc<<(8-accBits)))
	}
	return dst
}
