package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecorder_Summary(t *testing.T) {
	r := NewRecorder()
	for i := 1; i <= 100; i++ {
		r.Record(time.Duration(i) * time.Millisecond)
	}
	r.RecordError(true)
	r.RecordError(false)

	s := r.Summary()
	assert.Equal(t, int64(100), s.Count)
	assert.Equal(t, int64(2), s.Errors)
	assert.Equal(t, int64(1), s.Timeouts)

	// 3 significant digits keeps values within 0.1%.
	assert.InDelta(t, float64(time.Millisecond), float64(s.Min), float64(time.Millisecond)/100)
	assert.InDelta(t, float64(100*time.Millisecond), float64(s.Max), float64(100*time.Millisecond)/100)
	assert.InDelta(t, float64(50*time.Millisecond), float64(s.P50), float64(time.Millisecond))
	assert.InDelta(t, float64(95*time.Millisecond), float64(s.P95), float64(time.Millisecond))
	assert.InDelta(t, float64(99*time.Millisecond), float64(s.P99), float64(time.Millisecond))
	assert.InDelta(t, float64(50500*time.Microsecond), float64(s.Mean), float64(time.Millisecond))
}

func TestRecorder_Empty(t *testing.T) {
	s := NewRecorder().Summary()
	assert.Equal(t, Summary{}, s)
}

func TestRecorder_ClampsRange(t *testing.T) {
	r := NewRecorder()
	r.Record(0)
	r.Record(2 * time.Minute)

	s := r.Summary()
	assert.Equal(t, int64(2), s.Count)
	assert.Equal(t, time.Microsecond, s.Min)
	assert.InDelta(t, float64(time.Minute), float64(s.Max), float64(time.Minute)/100)
}

func TestRecorder_Concurrent(t *testing.T) {
	r := NewRecorder()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.Record(time.Millisecond)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), r.Summary().Count)
}
