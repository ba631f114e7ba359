// Package sink writes run results: parquet tables for tallies and cut edges, and the plain text change-count file.
// Every writer builds the output beside its final path and renames it into place only once complete.
package sink

import (
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/brotli"
)

const BROTLI_QUALITY = 6

func compression() parquet.WriterOption {
	return parquet.Compression(&brotli.Codec{Quality: BROTLI_QUALITY})
}
