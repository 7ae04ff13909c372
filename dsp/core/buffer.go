package core

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
// Callers on a real-time path must only grow buffers outside of it.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}

	if cap(buf) >= n {
		return buf[:n]
	}

	return make([]float64, n)
}

// EnsureComplexLen is the complex128 counterpart of EnsureLen.
func EnsureComplexLen(buf []complex128, n int) []complex128 {
	if n <= 0 {
		return buf[:0]
	}

	if cap(buf) >= n {
		return buf[:n]
	}

	return make([]complex128, n)
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	clear(buf)
}

// DiffInto writes a[i]-b[i] into dst for the common length and returns it.
func DiffInto(dst, a, b []float64) int {
	n := min(len(dst), len(a), len(b))
	for i := range n {
		dst[i] = a[i] - b[i]
	}

	return n
}
