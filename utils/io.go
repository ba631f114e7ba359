package utils

import (
	"math"
	"os"
	"path/filepath"
	"strings"
)

func init() {
	checkCompiler()
}

// Enforces a 64bit machine due to assumptions about size of ints.
func checkCompiler() {
	myInt := int(math.MaxInt64) // Shouldn't compile on a 32 bit system.
	myInt64 := int64(math.MaxInt64)
	if uint64(myInt) != uint64(myInt64) {
		panic("Must be on 64 bit system.")
	}
}

// Ensemble files are conventionally named <run>.jsonl.ben.
const EnsembleSuffix = ".jsonl.ben"

// OutputName derives an output path from an ensemble path: the ensemble suffix (or any final extension) is
// replaced by the given suffix. "runs/a.jsonl.ben" with "_cut_edges.parquet" gives "runs/a_cut_edges.parquet".
func OutputName(ensemblePath string, suffix string) string {
	base := ensemblePath
	if strings.HasSuffix(base, EnsembleSuffix) {
		base = strings.TrimSuffix(base, EnsembleSuffix)
	} else {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return base + suffix
}

// Extracts the file name without directories, for log messages.
func BaseName(path string) string {
	return filepath.Base(path)
}

// CreateTemp creates "<path>.tmp" in the same directory so a later rename over path is atomic.
func CreateTemp(path string) (*os.File, error) {
	return os.Create(path + ".tmp")
}

// CommitTemp closes the temp file made by CreateTemp and renames it over path. On any error the temp file is removed.
func CommitTemp(file *os.File, path string, werr error) error {
	cerr := file.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(file.Name())
		return werr
	}
	return os.Rename(file.Name(), path)
}
