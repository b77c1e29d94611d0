package storage

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Janitor periodically sweeps the working directory so aborted sessions do
// not leak clip files onto disk.
type Janitor struct {
	workDir  *WorkDir
	interval time.Duration
	maxAge   time.Duration
	stopChan chan struct{}
}

// NewJanitor creates a sweeper over workDir.
func NewJanitor(workDir *WorkDir, interval, maxAge time.Duration) *Janitor {
	return &Janitor{
		workDir:  workDir,
		interval: interval,
		maxAge:   maxAge,
		stopChan: make(chan struct{}),
	}
}

// Start runs an initial sweep and then sweeps on the configured interval
// until Stop is called.
func (j *Janitor) Start() {
	j.workDir.Sweep(j.maxAge)

	ticker := time.NewTicker(j.interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				j.workDir.Sweep(j.maxAge)
			case <-j.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	log.Info().
		Dur("interval", j.interval).
		Dur("maxAge", j.maxAge).
		Msg("Clip janitor started")
}

// Stop stops the janitor.
func (j *Janitor) Stop() {
	close(j.stopChan)
}
