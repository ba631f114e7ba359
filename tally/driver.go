package tally

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ScottSallinen/bentally/ben"
	"github.com/ScottSallinen/bentally/utils"
)

// Row is one record's statistic, placed in the ensemble.
type Row[R any] struct {
	Step     uint64 // Sample number of the record's first repetition; starts at 1.
	Reps     uint16 // Repetitions of the record.
	Accepted uint64 // Distinct records seen, including this one; starts at 1.
	Value    R
}

// Summary of a batched run.
type Summary struct {
	Records uint64 // Distinct records processed.
	Samples uint64 // Sum of their repetitions.
}

// RunBatched computes a statistic for every record of the source and emits the rows in stream order.
// Records of a batch are computed concurrently (compute must be safe for that); emission is sequential.
// Any decode, compute, or emit error aborts the run, and no row of the failing batch is emitted.
func RunBatched[R any](ctx context.Context, src ben.Source, opts Options, compute func(ben.Record) (R, error), emit func(Row[R]) error) (Summary, error) {
	opts = opts.withDefaults()
	name := sourceName(src)
	total, err := countRecords(src, name, opts)
	if err != nil {
		return Summary{}, err
	}
	progress := utils.NewProgress(name, total, opts.PollingRate)

	batch := make([]ben.Record, 0, opts.BatchSize)
	results := make([]R, opts.BatchSize)
	sample, accepted := uint64(1), uint64(1)
	var read uint64

	flush := func() error {
		first := read - uint64(len(batch))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Threads)
		for i := range batch {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				r, err := compute(batch[i])
				if err != nil {
					return fmt.Errorf("%s record %d: %w", name, first+uint64(i), err)
				}
				results[i] = r
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		for i := range batch {
			row := Row[R]{Step: sample, Reps: batch[i].Reps, Accepted: accepted, Value: results[i]}
			if err := emit(row); err != nil {
				return err
			}
			sample += uint64(batch[i].Reps)
			accepted++
		}
		clear(results)
		batch = batch[:0]
		progress.Update(accepted - 1)
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Summary{}, err
		}
		batch = append(batch, rec)
		read++
		if len(batch) == opts.BatchSize {
			if err := flush(); err != nil {
				return Summary{}, err
			}
		}
	}
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return Summary{}, err
		}
	}
	if read == 0 {
		return Summary{}, ErrEmptyStream
	}
	progress.Finish(read)
	return Summary{Records: read, Samples: sample - 1}, nil
}

type named interface {
	Name() string
}

func sourceName(src ben.Source) string {
	if n, ok := src.(named); ok {
		return utils.BaseName(n.Name())
	}
	return "ensemble"
}

// The optional first pass: counts records for progress reporting, then rewinds. A decode failure here is not
// fatal; the real pass meets the same error and handles it for its mode. A failed rewind is.
func countRecords(src ben.Source, name string, opts Options) (total uint64, err error) {
	if !opts.CountFirst {
		return 0, nil
	}
	if c, ok := src.(ben.Counter); ok {
		n, err := c.Count()
		if err != nil {
			log.Warn().Err(err).Msg("Counting " + name + " stopped early at " + utils.V(n) + " records")
		}
		total = n
	} else {
		for {
			if _, err := src.Next(); err != nil {
				break
			}
			total++
		}
	}
	if err := src.Rewind(); err != nil {
		return 0, fmt.Errorf("rewind %s after counting: %w", name, err)
	}
	log.Info().Msg("Found " + utils.V(total) + " unique plans in " + name)
	return total, nil
}
