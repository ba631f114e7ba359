package tally

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ScottSallinen/bentally/ben"
	"github.com/ScottSallinen/bentally/utils"
)

// ChangeTracker counts, per node, how often its label changes between consecutive records of a chain.
//
// Merge-split samplers pick which of the two merged districts keeps which label by a fixed convention, so the raw
// labels carry a bias that would show up as spurious flips. With a coin set, each transition has a one in two chance
// of swapping the two labels involved in the move (the labels at the first node that differs). The swap is folded
// into a running permutation, so later records are read in the same relabeled frame.
type ChangeTracker struct {
	coin    Coin // nil disables the relabel correction.
	current []uint16
	perm    []uint16
	counts  []uint64
	records uint64
}

func NewChangeTracker(coin Coin) *ChangeTracker {
	return &ChangeTracker{coin: coin}
}

// Step folds one raw record into the tracker. Returns how many nodes changed label on this transition.
// The raw slice is not modified.
func (t *ChangeTracker) Step(raw []uint16) (changed int, err error) {
	if len(raw) == 0 {
		return 0, &CorruptAssignmentError{Len: 0, Want: len(t.current)}
	}
	if t.records == 0 {
		t.current = append([]uint16(nil), raw...)
		t.perm = make([]uint16, int(utils.MaxSlice(raw))+1)
		for i := range t.perm {
			t.perm[i] = uint16(i)
		}
		t.counts = make([]uint64, len(raw))
		t.records = 1
		return 0, nil
	}
	if err := checkLen(raw, len(t.current)); err != nil {
		return 0, err
	}

	next := make([]uint16, len(raw))
	for i, label := range raw {
		if int(label) >= len(t.perm) {
			t.extendPerm(label)
		}
		next[i] = t.perm[label]
	}

	if t.coin != nil && t.coin.Flip() {
		if a, b, ok := firstDisagreement(t.current, next); ok {
			swapLabels(next, a, b)
			swapLabels(t.perm, a, b)
		}
	}

	for i := range next {
		if t.current[i] != next[i] {
			t.counts[i]++
			changed++
		}
	}
	t.current = next
	t.records++
	return changed, nil
}

// A label beyond anything seen so far maps to itself. perm stays a permutation of [0, len).
func (t *ChangeTracker) extendPerm(label uint16) {
	for l := len(t.perm); l <= int(label); l++ {
		t.perm = append(t.perm, uint16(l))
	}
}

func firstDisagreement(a, b []uint16) (uint16, uint16, bool) {
	for i := range a {
		if a[i] != b[i] {
			return a[i], b[i], true
		}
	}
	return 0, 0, false
}

// Transposes labels a and b in place.
func swapLabels(s []uint16, a, b uint16) {
	for i, v := range s {
		if v == a {
			s[i] = b
		} else if v == b {
			s[i] = a
		}
	}
}

func (t *ChangeTracker) Counts() []uint64 {
	return t.counts
}

func (t *ChangeTracker) Records() uint64 {
	return t.records
}

// Current is the last record, in the tracker's relabeled frame.
func (t *ChangeTracker) Current() []uint16 {
	return t.current
}

func (t *ChangeTracker) Permutation() []uint16 {
	return t.perm
}

// ChangeResult is the outcome of a change tracking run.
type ChangeResult struct {
	Counts    []uint64
	Records   uint64 // Records processed.
	Truncated bool   // The stream failed part way; counts cover the records before the failure.
}

// Values returns the counts as floats; normalized, each is divided by the number of transitions (Records - 1).
func (r ChangeResult) Values(normalize bool) []float64 {
	values := utils.ToFloat64(r.Counts)
	if normalize {
		if r.Records < 2 {
			return make([]float64, len(r.Counts))
		}
		floats.Scale(1/float64(r.Records-1), values)
	}
	return values
}

// RunChanges streams the source through a ChangeTracker, in order, on the calling goroutine.
func RunChanges(ctx context.Context, src ben.Source, opts Options) (ChangeResult, error) {
	opts = opts.withDefaults()
	name := sourceName(src)
	total, err := countRecords(src, name, opts)
	if err != nil {
		return ChangeResult{}, err
	}
	if opts.MaxAccepted > 0 && (total == 0 || opts.MaxAccepted < total) {
		total = opts.MaxAccepted
	}

	var coin Coin
	if opts.RelabelCorrection {
		rc := NewRandCoin(opts.Seed)
		log.Info().Msg("Relabel correction on, seed " + utils.V(rc.Seed()))
		coin = rc
	}
	tracker := NewChangeTracker(coin)
	progress := utils.NewProgress(name, total, opts.PollingRate)

	var result ChangeResult
	for {
		if err := ctx.Err(); err != nil {
			return ChangeResult{}, err
		}
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if tracker.Records() == 0 {
				return ChangeResult{}, fmt.Errorf("%w: %w", ErrEmptyStream, err)
			}
			log.Warn().Err(err).Msg("Stream failed after " + utils.V(tracker.Records()) + " records; keeping the counts so far.")
			result.Truncated = true
			break
		}
		changed, err := tracker.Step(rec.Assignment)
		if err != nil {
			return ChangeResult{}, err
		}
		log.Trace().Msg("record " + utils.V(tracker.Records()) + " changed " + utils.V(changed))
		progress.Update(tracker.Records())
		if opts.MaxAccepted > 0 && tracker.Records() >= opts.MaxAccepted {
			break
		}
	}
	if tracker.Records() == 0 {
		return ChangeResult{}, ErrEmptyStream
	}
	progress.Finish(tracker.Records())

	result.Counts = tracker.Counts()
	result.Records = tracker.Records()
	values := result.Values(opts.Normalize)
	log.Info().Msg("Changes per node: mean " + utils.F("%.4f", stat.Mean(values, nil)) + ", max " + utils.F("%.4f", floats.Max(values)))
	return result, nil
}
