package ben

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeAll(t *testing.T, banner string, samples ...[]uint16) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, banner)
	require.NoError(t, err)
	for _, s := range samples {
		require.NoError(t, enc.Write(s))
	}
	require.NoError(t, enc.Close())
	return buf.Bytes()
}

func decodeAll(t *testing.T, data []byte) []Record {
	t.Helper()
	dec, err := NewDecoder(bytes.NewReader(data), "test")
	require.NoError(t, err)
	var out []Record
	for {
		r, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, r)
	}
}

func TestEncodeKnownBytes(t *testing.T) {
	data := encodeAll(t, MarkovBanner, []uint16{0, 0, 1, 1})

	want := append([]byte(MarkovBanner),
		0x01, 0x02, // 1 bit values, 2 bit run lengths
		0x00, 0x00, 0x00, 0x01, // one payload byte
		0x58,       // 0|10 1|10 padded: 0101 1000
		0x00, 0x01, // one repetition
	)
	assert.Equal(t, want, data)

	// No repetition trailer in a standard file.
	data = encodeAll(t, StandardBanner, []uint16{0, 0, 1, 1})
	assert.Equal(t, append([]byte(StandardBanner), 0x01, 0x02, 0x00, 0x00, 0x00, 0x01, 0x58), data)
}

// Two standard records back to back must stay aligned: each is one sample with no count after it.
func TestDecodeStandardRecords(t *testing.T) {
	data := append([]byte(StandardBanner),
		0x01, 0x02, 0x00, 0x00, 0x00, 0x01, 0x58, // [0 0 1 1]
		0x01, 0x02, 0x00, 0x00, 0x00, 0x01, 0x3C, // 0|01 1|11 padded: 0011 1100 -> [0 1 1 1]
	)
	got := decodeAll(t, data)
	assert.Equal(t, []Record{
		{Assignment: []uint16{0, 0, 1, 1}, Reps: 1},
		{Assignment: []uint16{0, 1, 1, 1}, Reps: 1},
	}, got)

	src, err := NewSource(bytes.NewReader(data), "standard.ben")
	require.NoError(t, err)
	assert.Equal(t, StandardBanner, src.Banner())
	n, err := src.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
}

func TestStandardDoesNotCollapse(t *testing.T) {
	a := []uint16{2, 2, 0}
	got := decodeAll(t, encodeAll(t, StandardBanner, a, a, a))
	require.Len(t, got, 3)
	for _, r := range got {
		assert.Equal(t, Record{Assignment: a, Reps: 1}, r)
	}

	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, StandardBanner)
	require.NoError(t, err)
	require.NoError(t, enc.WriteRecord(Record{Assignment: a, Reps: 2}))
	require.NoError(t, enc.Close())
	assert.Len(t, decodeAll(t, buf.Bytes()), 2)
}

func TestOversizedRunsRejected(t *testing.T) {
	// 16 bit values and 16 bit lengths, every run 0xFFFF long: far past the node limit.
	payload := bytes.Repeat([]byte{0x00, 0x01, 0xFF, 0xFF}, MaxNodes/0xFFFF+2)
	data := append([]byte(StandardBanner), 0x10, 0x10)
	data = binary.BigEndian.AppendUint32(data, uint32(len(payload)))
	data = append(data, payload...)

	dec, err := NewDecoder(bytes.NewReader(data), "huge.ben")
	require.NoError(t, err)
	_, err = dec.Next()
	var decErr *StreamDecodeError
	assert.ErrorAs(t, err, &decErr)
}

func TestRepeatsCollapse(t *testing.T) {
	a := []uint16{0, 0, 1, 1}
	b := []uint16{0, 1, 1, 1}
	data := encodeAll(t, MarkovBanner, a, b, b, a)

	got := decodeAll(t, data)
	require.Len(t, got, 3)
	assert.Equal(t, Record{Assignment: a, Reps: 1}, got[0])
	assert.Equal(t, Record{Assignment: b, Reps: 2}, got[1])
	assert.Equal(t, Record{Assignment: a, Reps: 1}, got[2])
}

func TestWideLabelsAndLongRuns(t *testing.T) {
	long := make([]uint16, 70000)
	for i := range long {
		long[i] = 3
	}
	long[69999] = 40000
	mixed := []uint16{7, 0, 0, 0, 12, 12, 1, 5, 5, 5, 5, 5, 5, 5, 5, 5, 2}

	got := decodeAll(t, encodeAll(t, StandardBanner, long, mixed))
	require.Len(t, got, 2)
	assert.Equal(t, long, got[0].Assignment)
	assert.Equal(t, mixed, got[1].Assignment)
}

func TestRepetitionOverflowSplits(t *testing.T) {
	a := []uint16{1, 2}
	samples := make([][]uint16, math.MaxUint16+3)
	for i := range samples {
		samples[i] = a
	}
	got := decodeAll(t, encodeAll(t, MarkovBanner, samples...))
	require.Len(t, got, 2)
	assert.Equal(t, uint16(math.MaxUint16), got[0].Reps)
	assert.Equal(t, uint16(3), got[1].Reps)
}

func TestBadBanner(t *testing.T) {
	_, err := NewDecoder(bytes.NewReader([]byte("NOT A BEN FILE AT ALL")), "x.ben")
	assert.ErrorIs(t, err, ErrBadHeader)

	_, err = NewDecoder(bytes.NewReader(nil), "x.ben")
	assert.ErrorIs(t, err, ErrBadHeader)
}

func TestTruncatedRecord(t *testing.T) {
	data := encodeAll(t, StandardBanner, []uint16{0, 1}, []uint16{1, 1}, []uint16{1, 0})
	data = data[:len(data)-1]

	dec, err := NewDecoder(bytes.NewReader(data), "chain.ben")
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := dec.Next()
		require.NoError(t, err)
	}
	_, err = dec.Next()
	var decErr *StreamDecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, uint64(2), decErr.Record)
	assert.Equal(t, "chain.ben", decErr.File)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestCorruptHeader(t *testing.T) {
	data := append([]byte(StandardBanner), 0x00, 0x02, 0x00, 0x00, 0x00, 0x01, 0x58, 0x00, 0x01)
	dec, err := NewDecoder(bytes.NewReader(data), "")
	require.NoError(t, err)
	_, err = dec.Next()
	var decErr *StreamDecodeError
	assert.ErrorAs(t, err, &decErr)
}

func TestSourceCountAndRewind(t *testing.T) {
	data := encodeAll(t, MarkovBanner, []uint16{0, 1}, []uint16{1, 1}, []uint16{1, 1}, []uint16{1, 0})
	src, err := NewSource(bytes.NewReader(data), "mem")
	require.NoError(t, err)

	n, err := src.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	first, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, []uint16{0, 1}, first.Assignment)

	require.NoError(t, src.Rewind())
	again, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestSliceSourceFailure(t *testing.T) {
	boom := errors.New("boom")
	src := NewSliceSource(Record{Assignment: []uint16{0}, Reps: 1}, Record{Assignment: []uint16{1}, Reps: 1})
	src.Err, src.Fail = boom, 1

	_, err := src.Next()
	require.NoError(t, err)
	_, err = src.Next()
	assert.ErrorIs(t, err, boom)
}
