package sink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ScottSallinen/bentally/tally"
)

func TestWriteCutEdges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_cut_edges.parquet")
	rows := []tally.Row[uint32]{
		{Step: 1, Reps: 1, Accepted: 1, Value: 1},
		{Step: 2, Reps: 2, Accepted: 2, Value: 1},
		{Step: 4, Reps: 1, Accepted: 3, Value: 3},
	}
	require.NoError(t, WriteCutEdges(path, rows))

	got, err := parquet.ReadFile[CutEdgeRow](path)
	require.NoError(t, err)
	assert.Equal(t, []CutEdgeRow{
		{Step: 1, NReps: 1, Accepted: 1, CutEdges: 1},
		{Step: 2, NReps: 2, Accepted: 2, CutEdges: 1},
		{Step: 4, NReps: 1, Accepted: 3, CutEdges: 3},
	}, got)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestCutEdgeWriterAbort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.parquet")
	cw, err := NewCutEdgeWriter(path)
	require.NoError(t, err)
	require.NoError(t, cw.Write(tally.Row[uint32]{Step: 1, Reps: 1, Accepted: 1, Value: 2}))
	assert.Equal(t, uint64(1), cw.Rows())
	cw.Abort()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func tallyFixture() []tally.Row[tally.Table] {
	return []tally.Row[tally.Table]{
		{Step: 1, Reps: 3, Accepted: 1, Value: tally.Table{
			"pop": {0: 30, 1: 70},
			"vap": {0: 20, 1: 50},
		}},
		{Step: 4, Reps: 1, Accepted: 2, Value: tally.Table{
			"pop": {0: 60, 2: 40},
			"vap": {0: 45, 2: 25},
		}},
	}
}

func TestDistrictIDs(t *testing.T) {
	assert.Equal(t, []uint16{0, 1, 2}, DistrictIDs(tallyFixture()))
	assert.Empty(t, DistrictIDs(nil))
	assert.Equal(t, "district_12", DistrictColumn(12))
}

func TestTallyRowsLayout(t *testing.T) {
	rows := tallyFixture()
	ids := DistrictIDs(rows)
	schema := TallySchema(ids)
	idx := ColumnIndex(schema)
	require.Len(t, idx, 7)

	out := TallyRows(schema, []string{"vap", "pop"}, ids, rows)
	require.Len(t, out, 4)

	first := out[0]
	assert.Equal(t, "vap", string(first[idx["sum_columns"]].ByteArray()))
	assert.Equal(t, int64(1), first[idx["step"]].Int64())
	assert.Equal(t, int32(3), first[idx["n_reps"]].Int32())
	assert.Equal(t, 20.0, first[idx["district_0"]].Double())
	assert.True(t, first[idx["district_2"]].IsNull())

	last := out[3]
	assert.Equal(t, "pop", string(last[idx["sum_columns"]].ByteArray()))
	assert.Equal(t, int64(2), last[idx["accepted_count"]].Int64())
	assert.True(t, last[idx["district_1"]].IsNull())
	assert.Equal(t, 40.0, last[idx["district_2"]].Double())

	for _, row := range out {
		for i, v := range row {
			assert.Equal(t, i, v.Column())
		}
	}
}

type tallyRecord struct {
	Step      int64    `parquet:"step"`
	NReps     int32    `parquet:"n_reps"`
	Accepted  int64    `parquet:"accepted_count"`
	Key       string   `parquet:"sum_columns"`
	District0 *float64 `parquet:"district_0,optional"`
	District1 *float64 `parquet:"district_1,optional"`
	District2 *float64 `parquet:"district_2,optional"`
}

func TestWriteTallies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_tallies.parquet")
	require.NoError(t, WriteTallies(path, []string{"pop", "vap"}, tallyFixture()))

	got, err := parquet.ReadFile[tallyRecord](path)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, []string{"pop", "vap", "pop", "vap"}, []string{got[0].Key, got[1].Key, got[2].Key, got[3].Key})
	assert.Equal(t, int64(4), got[2].Step)
	assert.Equal(t, int32(3), got[1].NReps)
	require.NotNil(t, got[0].District1)
	assert.Equal(t, 70.0, *got[0].District1)
	assert.Nil(t, got[0].District2)
	assert.Nil(t, got[3].District1)
	require.NotNil(t, got[3].District2)
	assert.Equal(t, 25.0, *got[3].District2)
}

func TestFormatFloat(t *testing.T) {
	for _, tc := range []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{1, "1.0"},
		{0.5, "0.5"},
		{12, "12.0"},
		{0.125, "0.125"},
		{0.00005, "5e-5"},
		{1.5e17, "1.5e17"},
		{-2, "-2.0"},
	} {
		assert.Equal(t, tc.want, FormatFloat(tc.in), "%v", tc.in)
	}
	assert.Equal(t, "[1.0, 0.5]", FormatList([]float64{1, 0.5}))
	assert.Equal(t, "[]", FormatList(nil))
}

func TestWriteChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_accept_3_changed_assignments.txt")
	require.NoError(t, WriteChanges(path, []float64{1, 0.5, 0}, 3))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[1.0, 0.5, 0.0]\nTotal Accepted: 3", string(data))
}
