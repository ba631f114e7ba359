package sink

import (
	"slices"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"github.com/ScottSallinen/bentally/tally"
	"github.com/ScottSallinen/bentally/utils"
)

const DISTRICT_PREFIX = "district_"

// DistrictIDs lists every partition id seen under any key of any row, ascending.
func DistrictIDs(rows []tally.Row[tally.Table]) []uint16 {
	seen := make(map[uint16]struct{})
	for _, r := range rows {
		for _, sums := range r.Value {
			for id := range sums {
				seen[id] = struct{}{}
			}
		}
	}
	ids := make([]uint16, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func DistrictColumn(id uint16) string {
	return DISTRICT_PREFIX + strconv.Itoa(int(id))
}

// TallySchema has the four fixed columns plus one nullable double per district id.
// Parquet groups order their columns by name; rows must be laid out with ColumnIndex.
func TallySchema(ids []uint16) *parquet.Schema {
	group := parquet.Group{
		"step":           parquet.Int(64),
		"n_reps":         parquet.Int(32),
		"accepted_count": parquet.Int(64),
		"sum_columns":    parquet.String(),
	}
	for _, id := range ids {
		group[DistrictColumn(id)] = parquet.Optional(parquet.Leaf(parquet.DoubleType))
	}
	return parquet.NewSchema("tallies", group)
}

// ColumnIndex maps column name to its position in a flat schema.
func ColumnIndex(schema *parquet.Schema) map[string]int {
	fields := schema.Fields()
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		idx[f.Name()] = i
	}
	return idx
}

// TallyRows expands each record into one row per key, in the given key order.
func TallyRows(schema *parquet.Schema, keys []string, ids []uint16, rows []tally.Row[tally.Table]) []parquet.Row {
	idx := ColumnIndex(schema)
	width := len(idx)
	step, reps, accepted, key := idx["step"], idx["n_reps"], idx["accepted_count"], idx["sum_columns"]
	districts := make([]int, len(ids))
	for i, id := range ids {
		districts[i] = idx[DistrictColumn(id)]
	}

	out := make([]parquet.Row, 0, len(rows)*len(keys))
	for _, r := range rows {
		for _, k := range keys {
			row := make(parquet.Row, width)
			row[step] = parquet.Int64Value(int64(r.Step)).Level(0, 0, step)
			row[reps] = parquet.Int32Value(int32(r.Reps)).Level(0, 0, reps)
			row[accepted] = parquet.Int64Value(int64(r.Accepted)).Level(0, 0, accepted)
			row[key] = parquet.ByteArrayValue([]byte(k)).Level(0, 0, key)
			sums := r.Value[k]
			for i, id := range ids {
				col := districts[i]
				if v, ok := sums[id]; ok {
					row[col] = parquet.DoubleValue(v).Level(0, 1, col)
				} else {
					row[col] = parquet.NullValue().Level(0, 0, col)
				}
			}
			out = append(out, row)
		}
	}
	return out
}

// WriteTallies writes the tally table. The district columns are only known once every record is in, so the
// rows are gathered first.
func WriteTallies(path string, keys []string, rows []tally.Row[tally.Table]) error {
	ids := DistrictIDs(rows)
	schema := TallySchema(ids)

	file, err := utils.CreateTemp(path)
	if err != nil {
		return err
	}
	w := parquet.NewWriter(file, schema, compression())
	_, err = w.WriteRows(TallyRows(schema, keys, ids, rows))
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return utils.CommitTemp(file, path, err)
}
