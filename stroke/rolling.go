package stroke

// RollingAverage is the mean of the last N pushed values.
type RollingAverage struct {
	buf  []float32
	next int
	full bool
	sum  float64
}

// NewRollingAverage creates an average over n samples. n < 1 is treated as 1.
func NewRollingAverage(n int) *RollingAverage {
	if n < 1 {
		n = 1
	}
	return &RollingAverage{buf: make([]float32, n)}
}

// Push adds v and returns the new mean.
func (r *RollingAverage) Push(v float32) float32 {
	if r.full {
		r.sum -= float64(r.buf[r.next])
	}
	r.buf[r.next] = v
	r.sum += float64(v)
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
	return r.Mean()
}

// Mean returns the current mean, or 0 when empty.
func (r *RollingAverage) Mean() float32 {
	n := r.Len()
	if n == 0 {
		return 0
	}
	return float32(r.sum / float64(n))
}

// Len returns the number of samples in the window.
func (r *RollingAverage) Len() int {
	if r.full {
		return len(r.buf)
	}
	return r.next
}

// Clear empties the window.
func (r *RollingAverage) Clear() {
	r.next = 0
	r.full = false
	r.sum = 0
}
