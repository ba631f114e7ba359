package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func expect[T comparable](t *testing.T, a T, b T) {
	t.Helper()
	if a != b {
		t.Error("Expected: ", a, " got: ", b)
	}
}

func Test_OutputName(t *testing.T) {
	tests := []struct {
		in, suffix, want string
	}{
		{"runs/5x5_seed_42.jsonl.ben", "_tallies.parquet", "runs/5x5_seed_42_tallies.parquet"},
		{"a.jsonl.ben", "_cut_edges.parquet", "a_cut_edges.parquet"},
		{"dir.v2/chain.ben", "_cut_edges.parquet", "dir.v2/chain_cut_edges.parquet"},
		{"chain", "_accept_10_changed_assignments.txt", "chain_accept_10_changed_assignments.txt"},
	}
	for _, tt := range tests {
		expect(t, tt.want, OutputName(tt.in, tt.suffix))
	}
}

func Test_CommitTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	f, err := CreateTemp(path)
	if err != nil {
		t.Fatal(err)
	}
	_, werr := f.WriteString("hello")
	if err := CommitTemp(f, path, werr); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	expect(t, "hello", string(got))
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func Test_CommitTempFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	f, err := CreateTemp(path)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("partial")
	failed := errors.New("writer failed")
	if err := CommitTemp(f, path, failed); !errors.Is(err, failed) {
		t.Error("expected the write error back, got ", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("output should not exist after a failed write")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}
