package series

import "sync"

// DefaultCapacity is the number of samples a chart feed buffer retains.
const DefaultCapacity = 15

// Sample is one recorded metric observation. Immutable once recorded.
type Sample struct {
	Timestamp float64 // seconds since the owning feed's first tick
	Value     float64
}

// Bounds is a presentation value range for a buffer.
type Bounds struct {
	Min, Max float64
}

// Buffer is a fixed-capacity rolling time series for one metric. Insertion
// order is chronological; on overflow the oldest sample is evicted before
// the newest is appended. A buffer is either static-range (caller-supplied
// bounds, kept forever) or auto-range (bounds recomputed on every record to
// exactly cover the current contents).
type Buffer struct {
	mu        sync.RWMutex
	samples   []Sample
	capacity  int
	autoRange bool
	bounds    Bounds
}

// New creates a static-range buffer with the given presentation bounds.
func New(capacity int, bounds Bounds) *Buffer {
	return &Buffer{
		samples:  make([]Sample, 0, normalizeCapacity(capacity)),
		capacity: normalizeCapacity(capacity),
		bounds:   bounds,
	}
}

// NewAutoRange creates a buffer that recomputes its presentation bounds
// from its contents on every record.
func NewAutoRange(capacity int) *Buffer {
	return &Buffer{
		samples:   make([]Sample, 0, normalizeCapacity(capacity)),
		capacity:  normalizeCapacity(capacity),
		autoRange: true,
	}
}

func normalizeCapacity(capacity int) int {
	if capacity <= 0 {
		return DefaultCapacity
	}

	return capacity
}

// Record appends a sample, evicting the oldest if the buffer is full.
// It always succeeds.
func (b *Buffer) Record(timestamp, value float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.samples) >= b.capacity {
		copy(b.samples, b.samples[1:])
		b.samples = b.samples[:len(b.samples)-1]
	}
	b.samples = append(b.samples, Sample{Timestamp: timestamp, Value: value})

	if b.autoRange {
		minValue, maxValue := b.minMaxLocked()
		b.bounds = Bounds{Min: minValue, Max: maxValue}
	}
}

// Len returns the number of samples currently held.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.samples)
}

// Range returns the (min, max) over current values. ok is false when the
// buffer is empty; callers must check it before using the bounds.
func (b *Buffer) Range() (minValue, maxValue float64, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.samples) == 0 {
		return 0, 0, false
	}

	minValue, maxValue = b.minMaxLocked()

	return minValue, maxValue, true
}

// Span returns the timestamps of the oldest and newest samples. ok is false
// when fewer than two samples are held.
func (b *Buffer) Span() (oldest, newest float64, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.samples) < 2 {
		return 0, 0, false
	}

	return b.samples[0].Timestamp, b.samples[len(b.samples)-1].Timestamp, true
}

// Bounds returns the current presentation bounds: the fixed caller-supplied
// range for static buffers, the last recomputed cover for auto-range ones.
func (b *Buffer) Bounds() Bounds {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.bounds
}

// Snapshot returns a copy of the current contents in chronological order.
func (b *Buffer) Snapshot() []Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Sample, len(b.samples))
	copy(out, b.samples)

	return out
}

func (b *Buffer) minMaxLocked() (minValue, maxValue float64) {
	minValue = b.samples[0].Value
	maxValue = b.samples[0].Value
	for _, s := range b.samples[1:] {
		if s.Value < minValue {
			minValue = s.Value
		}
		if s.Value > maxValue {
			maxValue = s.Value
		}
	}

	return minValue, maxValue
}
