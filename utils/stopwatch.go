package utils

import (
	"sync"
	"time"
)

// Watch is a stopwatch that may be read from any goroutine.
type Watch struct {
	mu        sync.RWMutex
	startTime time.Time
}

func (w *Watch) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.startTime = time.Now()
}

func (w *Watch) Elapsed() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return time.Since(w.startTime)
}
