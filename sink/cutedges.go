package sink

import (
	"errors"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/ScottSallinen/bentally/tally"
	"github.com/ScottSallinen/bentally/utils"
)

// CutEdgeRow is the on-disk layout of a cut edge table.
type CutEdgeRow struct {
	Step     int64  `parquet:"step"`
	NReps    int32  `parquet:"n_reps"`
	Accepted int64  `parquet:"accepted_count"`
	CutEdges uint32 `parquet:"cut_edges"`
}

const cutEdgeBuffer = 4096

var errAborted = errors.New("cut edge output aborted")

// CutEdgeWriter streams cut edge rows to a parquet file.
type CutEdgeWriter struct {
	path string
	file *os.File
	w    *parquet.GenericWriter[CutEdgeRow]
	buf  []CutEdgeRow
	rows uint64
}

func NewCutEdgeWriter(path string) (*CutEdgeWriter, error) {
	file, err := utils.CreateTemp(path)
	if err != nil {
		return nil, err
	}
	return &CutEdgeWriter{
		path: path,
		file: file,
		w:    parquet.NewGenericWriter[CutEdgeRow](file, compression()),
		buf:  make([]CutEdgeRow, 0, cutEdgeBuffer),
	}, nil
}

func (cw *CutEdgeWriter) Write(row tally.Row[uint32]) error {
	cw.buf = append(cw.buf, CutEdgeRow{
		Step:     int64(row.Step),
		NReps:    int32(row.Reps),
		Accepted: int64(row.Accepted),
		CutEdges: row.Value,
	})
	if len(cw.buf) == cap(cw.buf) {
		return cw.flush()
	}
	return nil
}

func (cw *CutEdgeWriter) flush() error {
	n, err := cw.w.Write(cw.buf)
	cw.rows += uint64(n)
	cw.buf = cw.buf[:0]
	return err
}

func (cw *CutEdgeWriter) Rows() uint64 {
	return cw.rows + uint64(len(cw.buf))
}

// Close writes the footer and moves the file into place.
func (cw *CutEdgeWriter) Close() error {
	err := cw.flush()
	if err == nil {
		err = cw.w.Close()
	}
	return utils.CommitTemp(cw.file, cw.path, err)
}

// Abort discards everything written so far; nothing appears at the output path.
func (cw *CutEdgeWriter) Abort() {
	utils.CommitTemp(cw.file, cw.path, errAborted)
}

// WriteCutEdges writes a complete table in one go.
func WriteCutEdges(path string, rows []tally.Row[uint32]) error {
	cw, err := NewCutEdgeWriter(path)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r); err != nil {
			cw.Abort()
			return err
		}
	}
	return cw.Close()
}
