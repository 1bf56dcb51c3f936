package sensor

import (
	"sync"
	"time"
)

// History records the last N samples. The firmware keeps the same window of
// CO2 values in non-volatile storage across deep sleeps.
type History struct {
	maxRecordCount int
	records        []Reading
	mu             *sync.Mutex
}

// NewHistory returns a History holding at most maxRecordCount samples.
func NewHistory(maxRecordCount int) *History {
	if maxRecordCount < 1 {
		maxRecordCount = 1
	}
	return &History{
		maxRecordCount: maxRecordCount,
		records:        make([]Reading, 0, maxRecordCount),
		mu:             &sync.Mutex{},
	}
}

// Add appends a sample, dropping the oldest one when full.
func (h *History) Add(r Reading) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r.Time = r.Time.Round(0)
	if len(h.records) >= h.maxRecordCount {
		h.records = h.records[len(h.records)-h.maxRecordCount+1:]
	}
	h.records = append(h.records, r)
}

// Resize changes the capacity, keeping the newest samples.
func (h *History) Resize(maxRecordCount int) {
	if maxRecordCount < 1 {
		maxRecordCount = 1
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.maxRecordCount = maxRecordCount
	if len(h.records) > maxRecordCount {
		h.records = h.records[len(h.records)-maxRecordCount:]
	}
}

// Cap returns the maximum number of samples kept.
func (h *History) Cap() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.maxRecordCount
}

// Clear removes all samples.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = make([]Reading, 0, h.maxRecordCount)
}

// Records returns a copy of the samples, oldest first.
func (h *History) Records() []Reading {
	h.mu.Lock()
	defer h.mu.Unlock()

	ret := make([]Reading, len(h.records))
	copy(ret, h.records)
	return ret
}

// Last returns the newest sample.
func (h *History) Last() (Reading, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.records) == 0 {
		return Reading{}, false
	}
	return h.records[len(h.records)-1], true
}

// CO2 returns the CO2 values, oldest first.
func (h *History) CO2() []uint16 {
	h.mu.Lock()
	defer h.mu.Unlock()

	ret := make([]uint16, 0, len(h.records))
	for _, r := range h.records {
		ret = append(ret, r.CO2)
	}
	return ret
}

// Since returns the samples taken within the last duration, oldest first.
func (h *History) Since(last time.Duration) []Reading {
	h.mu.Lock()
	defer h.mu.Unlock()

	var ret []Reading
	for i := len(h.records) - 1; i >= 0; i-- {
		if time.Since(h.records[i].Time) > last {
			break
		}
		ret = append([]Reading{h.records[i]}, ret...)
	}
	return ret
}
