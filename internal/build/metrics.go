package build

import (
	"sync"
	"time"
)

// BuildMetrics tracks what a runner has built
type BuildMetrics struct {
	TotalUnits      int64
	SuccessfulUnits int64
	FailedUnits     int64
	Outputs         int64
	Files           int64
	AverageDuration time.Duration
	TotalDuration   time.Duration
	mutex           sync.RWMutex
}

// NewBuildMetrics creates a new build metrics tracker
func NewBuildMetrics() *BuildMetrics {
	return &BuildMetrics{}
}

// RecordUnit records a finished unit
func (bm *BuildMetrics) RecordUnit(duration time.Duration, err error) {
	bm.mutex.Lock()
	defer bm.mutex.Unlock()

	bm.TotalUnits++
	bm.TotalDuration += duration

	if err != nil {
		bm.FailedUnits++
	} else {
		bm.SuccessfulUnits++
	}

	bm.AverageDuration = bm.TotalDuration / time.Duration(bm.TotalUnits)
}

// RecordOutput records one written output and its file count
func (bm *BuildMetrics) RecordOutput(files int) {
	bm.mutex.Lock()
	defer bm.mutex.Unlock()

	bm.Outputs++
	bm.Files += int64(files)
}

// GetSnapshot returns a snapshot of current metrics
func (bm *BuildMetrics) GetSnapshot() BuildMetrics {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()

	return BuildMetrics{
		TotalUnits:      bm.TotalUnits,
		SuccessfulUnits: bm.SuccessfulUnits,
		FailedUnits:     bm.FailedUnits,
		Outputs:         bm.Outputs,
		Files:           bm.Files,
		AverageDuration: bm.AverageDuration,
		TotalDuration:   bm.TotalDuration,
	}
}

// Reset resets all metrics
func (bm *BuildMetrics) Reset() {
	bm.mutex.Lock()
	defer bm.mutex.Unlock()

	bm.TotalUnits = 0
	bm.SuccessfulUnits = 0
	bm.FailedUnits = 0
	bm.Outputs = 0
	bm.Files = 0
	bm.AverageDuration = 0
	bm.TotalDuration = 0
}

// GetSuccessRate returns the success rate as a percentage
func (bm *BuildMetrics) GetSuccessRate() float64 {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()

	if bm.TotalUnits == 0 {
		return 0.0
	}

	return float64(bm.SuccessfulUnits) / float64(bm.TotalUnits) * 100.0
}
