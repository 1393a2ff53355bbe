// Package stats aggregates request latencies of a run.
package stats

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	minLatencyUs = 1
	// 60s, the largest latency the histogram tracks.
	maxLatencyUs = 60_000_000
)

// Recorder collects latencies from concurrent requests.
type Recorder struct {
	mu        sync.Mutex
	histogram *hdrhistogram.Histogram
	errors    int64
	timeouts  int64
}

// Summary describes the latency distribution of the responses of a run.
// Failed requests are counted but contribute no latency.
type Summary struct {
	Count    int64         `json:"count" yaml:"count"`
	Errors   int64         `json:"errors" yaml:"errors"`
	Timeouts int64         `json:"timeouts" yaml:"timeouts"`
	Min      time.Duration `json:"min" yaml:"min"`
	Max      time.Duration `json:"max" yaml:"max"`
	Mean     time.Duration `json:"mean" yaml:"mean"`
	P50      time.Duration `json:"p50" yaml:"p50"`
	P95      time.Duration `json:"p95" yaml:"p95"`
	P99      time.Duration `json:"p99" yaml:"p99"`
}

func NewRecorder() *Recorder {
	return &Recorder{
		// 1us to 60s range, 3 significant digits
		histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, 3),
	}
}

// Record adds the latency of a request that produced a response.
func (r *Recorder) Record(d time.Duration) {
	us := d.Microseconds()
	if us < minLatencyUs {
		us = minLatencyUs
	}
	if us > maxLatencyUs {
		us = maxLatencyUs
	}

	r.mu.Lock()
	_ = r.histogram.RecordValue(us)
	r.mu.Unlock()
}

// RecordError counts a request that failed before producing a response.
func (r *Recorder) RecordError(timeout bool) {
	r.mu.Lock()
	r.errors++
	if timeout {
		r.timeouts++
	}
	r.mu.Unlock()
}

func (r *Recorder) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{
		Count:    r.histogram.TotalCount(),
		Errors:   r.errors,
		Timeouts: r.timeouts,
	}
	if s.Count == 0 {
		return s
	}

	s.Min = micros(r.histogram.Min())
	s.Max = micros(r.histogram.Max())
	s.Mean = time.Duration(r.histogram.Mean() * float64(time.Microsecond))
	s.P50 = micros(r.histogram.ValueAtQuantile(50))
	s.P95 = micros(r.histogram.ValueAtQuantile(95))
	s.P99 = micros(r.histogram.ValueAtQuantile(99))
	return s
}

func micros(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}
