// Package ben reads and writes BEN (binary ensemble) files: a banner followed by run-length, bit-packed partition
// assignments, each carrying the number of consecutive times the sampler produced it.
//
// Record layout, after the 17 byte banner:
//
//	max_val_bits  u8
//	max_len_bits  u8
//	n_bytes       u32, big endian
//	payload       n_bytes of (value, run length) pairs, MSB first, zero padded to a byte
//	n_reps        u16, big endian; MKVCHAIN files only, STANDARD records stand for one sample
package ben

import (
	"errors"
	"math"
	"strconv"
)

const (
	StandardBanner = "STANDARD BEN FILE"
	MarkovBanner   = "MKVCHAIN BEN FILE"
	bannerLen      = 17

	recordHeaderLen = 6
	repsLen         = 2

	MaxReps = math.MaxUint16
	// Longest assignment a record may expand to.
	MaxNodes = 1 << 26
	// Upper bound on a single record payload; anything larger is treated as corruption rather than allocated.
	maxPayload = 1 << 30
)

// Record is one accepted assignment and how many consecutive samples it stands for.
type Record struct {
	Assignment []uint16 // Partition id per node, indexed by node.
	Reps       uint16
}

var ErrBadHeader = errors.New("not a BEN file (unknown banner)")

// StreamDecodeError is returned for a truncated or malformed record. Record is the zero-based index of the
// record that failed to decode.
type StreamDecodeError struct {
	File   string
	Record uint64
	Err    error
}

func (e *StreamDecodeError) Error() string {
	name := e.File
	if name == "" {
		name = "<stream>"
	}
	return "decode " + name + " record " + strconv.FormatUint(e.Record, 10) + ": " + e.Err.Error()
}

func (e *StreamDecodeError) Unwrap() error {
	return e.Err
}
