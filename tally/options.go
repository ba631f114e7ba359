package tally

import (
	"runtime"
	"time"
)

const DEFAULT_BATCH_SIZE = 100

type Options struct {
	Threads           int           // Workers used to compute records of a batch in parallel.
	BatchSize         int           // Records pulled from the stream per parallel round. No effect on results.
	CountFirst        bool          // Count the records before the real pass, so progress can report an ETA.
	PollingRate       time.Duration // How often to log progress. 0 disables progress lines.
	MaxAccepted       uint64        // Change tracking stops after this many records. 0 is unlimited.
	Normalize         bool          // Divide change counts by (records - 1).
	RelabelCorrection bool          // Randomly swap the two labels of a merge-split move before comparing.
	Seed              uint64        // Seed for the relabel coin. 0 picks one from the clock.
}

func DefaultOptions() Options {
	return Options{
		Threads:           runtime.NumCPU(),
		BatchSize:         DEFAULT_BATCH_SIZE,
		CountFirst:        true,
		PollingRate:       2 * time.Second,
		RelabelCorrection: true,
	}
}

// Fills in anything left at zero that must not be.
func (o Options) withDefaults() Options {
	if o.Threads <= 0 {
		o.Threads = runtime.NumCPU()
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DEFAULT_BATCH_SIZE
	}
	return o
}
