package achan

// ringBuffer is a fixed-capacity FIFO of values, backing both the one-shot
// (capacity 1) and bounded (capacity N) channel variants.
//
// Adapted from catrate's ringBuffer[E constraints.Ordered]: the same
// mod-indexed circular-slice technique, generalized from an Ordered,
// power-of-2-sized, growable rate-limiter buffer down to a plain `any`,
// arbitrary-capacity, fixed-size FIFO — a channel's capacity is a
// user-chosen backpressure bound, not a rate bucket, so neither the
// ordering constraint nor the power-of-2 restriction carries over, and the
// buffer never needs to grow (pushing past capacity is a caller error,
// checked by Full before PushBack is ever called).
type ringBuffer[E any] struct {
	s    []E
	r, w uint
}

func newRingBuffer[E any](capacity int) *ringBuffer[E] {
	if capacity <= 0 {
		panic("achan: ring: capacity must be positive")
	}
	return &ringBuffer[E]{s: make([]E, capacity)}
}

func (x *ringBuffer[E]) mask(val uint) uint {
	return val % uint(len(x.s))
}

func (x *ringBuffer[E]) Len() int {
	return int(x.w - x.r)
}

func (x *ringBuffer[E]) Cap() int {
	return len(x.s)
}

func (x *ringBuffer[E]) Full() bool {
	return x.Len() == x.Cap()
}

// PushBack appends value to the tail. The caller must have already checked
// Full() is false.
func (x *ringBuffer[E]) PushBack(value E) {
	if x.Full() {
		panic("achan: ring: push into full buffer")
	}
	x.s[x.mask(x.w)] = value
	x.w++
}

// PopFront removes and returns the head value. The caller must have already
// checked Len() > 0.
func (x *ringBuffer[E]) PopFront() E {
	if x.Len() == 0 {
		panic("achan: ring: pop from empty buffer")
	}
	i := x.mask(x.r)
	var zero E
	v := x.s[i]
	x.s[i] = zero // avoid pinning a stale reference for GC
	x.r++
	return v
}
