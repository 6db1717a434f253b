package learning

// interaction is one remembered exchange in the bounded history.
type interaction struct {
	Input         string
	Response      string
	Effectiveness float64
}

// ring is a fixed-capacity drop-oldest buffer. Not safe for concurrent use;
// the Engine guards it with its own mutex.
type ring[T any] struct {
	buf  []T
	head int
	n    int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{buf: make([]T, capacity)}
}

func (r *ring[T]) push(v T) {
	if r.n < len(r.buf) {
		r.buf[(r.head+r.n)%len(r.buf)] = v
		r.n++
		return
	}
	// Full: overwrite the oldest slot.
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
}

func (r *ring[T]) len() int { return r.n }
