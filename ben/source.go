package ben

import (
	"errors"
	"io"
	"os"
)

// Source is a restartable, ordered stream of records. Next returns io.EOF at the end of the stream.
type Source interface {
	Next() (Record, error)
	Rewind() error
}

// Counter is implemented by sources that can count their records cheaply (without unpacking assignments).
// Counting leaves the source rewound.
type Counter interface {
	Count() (uint64, error)
}

// StreamSource decodes records from a seekable BEN stream.
type StreamSource struct {
	name   string
	rs     io.ReadSeeker
	closer io.Closer
	dec    *Decoder
}

func NewSource(rs io.ReadSeeker, name string) (*StreamSource, error) {
	s := &StreamSource{name: name, rs: rs}
	if err := s.Rewind(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenFile opens a BEN file as a Source. The caller closes it.
func OpenFile(path string) (*StreamSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	s, err := NewSource(file, path)
	if err != nil {
		file.Close()
		return nil, err
	}
	s.closer = file
	return s, nil
}

func (s *StreamSource) Name() string {
	return s.name
}

// Banner of the underlying file: StandardBanner or MarkovBanner.
func (s *StreamSource) Banner() string {
	return s.dec.Banner()
}

func (s *StreamSource) Next() (Record, error) {
	return s.dec.Next()
}

func (s *StreamSource) Rewind() error {
	if _, err := s.rs.Seek(0, io.SeekStart); err != nil {
		return err
	}
	dec, err := NewDecoder(s.rs, s.name)
	if err != nil {
		return err
	}
	s.dec = dec
	return nil
}

func (s *StreamSource) Count() (n uint64, err error) {
	if err = s.Rewind(); err != nil {
		return 0, err
	}
	for {
		if err = s.dec.Skip(); err != nil {
			break
		}
		n++
	}
	if !errors.Is(err, io.EOF) {
		return n, err
	}
	return n, s.Rewind()
}

func (s *StreamSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// SliceSource serves records from memory. If Err is set, it is returned once Fail records have been served.
type SliceSource struct {
	Records []Record
	Err     error
	Fail    int
	pos     int
}

func NewSliceSource(records ...Record) *SliceSource {
	return &SliceSource{Records: records}
}

func (s *SliceSource) Next() (Record, error) {
	if s.Err != nil && s.pos == s.Fail {
		return Record{}, s.Err
	}
	if s.pos >= len(s.Records) {
		return Record{}, io.EOF
	}
	r := s.Records[s.pos]
	s.pos++
	return r, nil
}

func (s *SliceSource) Rewind() error {
	s.pos = 0
	return nil
}

func (s *SliceSource) Count() (uint64, error) {
	s.pos = 0
	if s.Err != nil && s.Fail < len(s.Records) {
		return uint64(s.Fail), s.Err
	}
	return uint64(len(s.Records)), nil
}
