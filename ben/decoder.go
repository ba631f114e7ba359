package ben

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"strconv"
)

// Decoder reads records sequentially. Each returned assignment is freshly allocated, so callers may hold on to it.
// Only MKVCHAIN records carry a repetition count; STANDARD records are one sample each.
type Decoder struct {
	r       *bufio.Reader
	name    string
	banner  string
	markov  bool
	record  uint64
	lastLen int
	payload []byte
}

// NewDecoder reads and checks the banner. Name is only used in error messages.
func NewDecoder(r io.Reader, name string) (*Decoder, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, 1<<20)
	}
	d := &Decoder{r: br, name: name}

	var banner [bannerLen]byte
	if _, err := io.ReadFull(br, banner[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &StreamDecodeError{File: name, Err: ErrBadHeader}
		}
		return nil, err
	}
	switch string(banner[:]) {
	case StandardBanner, MarkovBanner:
		d.banner = string(banner[:])
		d.markov = d.banner == MarkovBanner
	default:
		return nil, &StreamDecodeError{File: name, Err: ErrBadHeader}
	}
	return d, nil
}

func (d *Decoder) Banner() string {
	return d.banner
}

func (d *Decoder) fail(err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return &StreamDecodeError{File: d.name, Record: d.record, Err: err}
}

// Reads the fixed record header. A clean io.EOF means the stream ended between records.
func (d *Decoder) header() (valBits uint8, lenBits uint8, nBytes uint32, err error) {
	var hdr [recordHeaderLen]byte
	n, err := io.ReadFull(d.r, hdr[:])
	if err != nil {
		if n == 0 && errors.Is(err, io.EOF) {
			return 0, 0, 0, io.EOF
		}
		return 0, 0, 0, d.fail(err)
	}
	valBits, lenBits = hdr[0], hdr[1]
	nBytes = binary.BigEndian.Uint32(hdr[2:])
	if valBits < 1 || valBits > 16 || lenBits < 1 || lenBits > 16 {
		return 0, 0, 0, d.fail(errors.New("invalid bit widths " + strconv.Itoa(int(valBits)) + "/" + strconv.Itoa(int(lenBits))))
	}
	if nBytes == 0 || nBytes > maxPayload {
		return 0, 0, 0, d.fail(errors.New("invalid payload size " + strconv.FormatUint(uint64(nBytes), 10)))
	}
	return valBits, lenBits, nBytes, nil
}

// Next returns the next record, or io.EOF once the stream is exhausted.
func (d *Decoder) Next() (Record, error) {
	valBits, lenBits, nBytes, err := d.header()
	if err != nil {
		return Record{}, err
	}
	if cap(d.payload) < int(nBytes) {
		d.payload = make([]byte, nBytes)
	}
	payload := d.payload[:nBytes]
	if _, err := io.ReadFull(d.r, payload); err != nil {
		return Record{}, d.fail(err)
	}
	reps := uint16(1)
	if d.markov {
		var repsBuf [repsLen]byte
		if _, err := io.ReadFull(d.r, repsBuf[:]); err != nil {
			return Record{}, d.fail(err)
		}
		reps = binary.BigEndian.Uint16(repsBuf[:])
		if reps == 0 {
			return Record{}, d.fail(errors.New("zero repetition count"))
		}
	}

	assignment, err := unpack(payload, valBits, lenBits, d.lastLen)
	if err != nil {
		return Record{}, d.fail(err)
	}
	if len(assignment) == 0 {
		return Record{}, d.fail(errors.New("empty assignment"))
	}
	d.lastLen = len(assignment)
	d.record++
	return Record{Assignment: assignment, Reps: reps}, nil
}

// Skip advances past the next record without unpacking it. Returns io.EOF once the stream is exhausted.
func (d *Decoder) Skip() error {
	_, _, nBytes, err := d.header()
	if err != nil {
		return err
	}
	skip := int(nBytes)
	if d.markov {
		skip += repsLen
	}
	if _, err := d.r.Discard(skip); err != nil {
		return d.fail(err)
	}
	d.record++
	return nil
}

// Expands the bit-packed (value, length) pairs. Trailing padding decodes as zero length runs, which add nothing.
// Fails before growing past MaxNodes.
func unpack(payload []byte, valBits uint8, lenBits uint8, sizeHint int) ([]uint16, error) {
	pairBits := uint(valBits) + uint(lenBits)
	lenMask := uint64(1)<<lenBits - 1
	totalBits := uint64(len(payload)) * 8

	out := make([]uint16, 0, sizeHint)
	var acc uint64
	var accBits uint
	pos := 0
	for used := uint64(0); used+uint64(pairBits) <= totalBits; used += uint64(pairBits) {
		for accBits < pairBits {
			acc = acc<<8 | uint64(payload[pos])
			pos++
			accBits += 8
		}
		accBits -= pairBits
		pair := acc >> accBits
		acc &= uint64(1)<<accBits - 1

		val := uint16(pair >> lenBits)
		run := pair & lenMask
		if uint64(len(out))+run > MaxNodes {
			return nil, errors.New("assignment longer than " + strconv.Itoa(MaxNodes) + " nodes")
		}
		for ; run > 0; run-- {
			out = append(out, val)
		}
	}
	return out, nil
}
