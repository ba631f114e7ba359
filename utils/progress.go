package utils

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Progress prints periodic status lines while an ensemble is processed.
// Total may be zero when the record count is not known up front, in which case no ETA is given.
type Progress struct {
	Name     string
	Total    uint64
	Interval time.Duration

	watch    Watch
	lastTick time.Duration
}

func NewProgress(name string, total uint64, interval time.Duration) *Progress {
	p := &Progress{Name: name, Total: total, Interval: interval}
	p.watch.Start()
	return p
}

// Update logs the status if at least Interval has passed since the previous line. Returns true if it logged.
func (p *Progress) Update(done uint64) bool {
	if p.Interval <= 0 {
		return false
	}
	elapsed := p.watch.Elapsed()
	if elapsed-p.lastTick < p.Interval {
		return false
	}
	p.lastTick = elapsed
	log.Info().Msg(p.Status(done, elapsed))
	return true
}

func (p *Progress) Finish(done uint64) time.Duration {
	elapsed := p.watch.Elapsed()
	log.Info().Msg(p.Name + ": processed " + V(done) + " records in " + FormatMinSec(elapsed))
	return elapsed
}

// Status line for the given count of done records, e.g. "ens.ben: 500/1000 (50.0%) Elapsed: 0m 2s, ETA: 0m 2s".
func (p *Progress) Status(done uint64, elapsed time.Duration) string {
	if p.Total == 0 {
		return p.Name + ": " + V(done) + " records, Elapsed: " + FormatMinSec(elapsed)
	}
	pct := 100 * float64(done) / float64(p.Total)
	s := p.Name + ": " + V(done) + "/" + V(p.Total) + " (" + F("%.1f", pct) + "%) Elapsed: " + FormatMinSec(elapsed)
	if done > 0 && done <= p.Total {
		rate := float64(done) / elapsed.Seconds()
		remaining := time.Duration(float64(p.Total-done) / rate * float64(time.Second))
		s += ", ETA: " + FormatMinSec(remaining)
	}
	return s
}

func FormatMinSec(d time.Duration) string {
	secs := int64(d.Seconds())
	return V(secs/60) + "m " + V(secs%60) + "s"
}
