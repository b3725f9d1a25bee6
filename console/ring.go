package console

// Ring is a fixed-capacity queue. Pushing onto a full ring drops the oldest
// element.
type Ring[T any] struct {
	data       []T
	size       int
	readIndex  int
	writeIndex int
	count      int
}

// NewRing creates a ring holding at most size elements.
func NewRing[T any](size int) *Ring[T] {
	if size < 1 {
		size = 1
	}
	return &Ring[T]{
		data: make([]T, size),
		size: size,
	}
}

// Push appends value, evicting the oldest element when full.
func (r *Ring[T]) Push(value T) {
	if r.IsFull() {
		r.readIndex = (r.readIndex + 1) % r.size
		r.count--
	}
	r.data[r.writeIndex] = value
	r.writeIndex = (r.writeIndex + 1) % r.size
	r.count++
}

// At returns the i-th element, oldest first.
func (r *Ring[T]) At(i int) T {
	if i < 0 || i >= r.count {
		panic("console: ring index out of range")
	}
	return r.data[(r.readIndex+i)%r.size]
}

// Items copies the elements out, oldest first.
func (r *Ring[T]) Items() []T {
	out := make([]T, r.count)
	for i := range out {
		out[i] = r.At(i)
	}
	return out
}

func (r *Ring[T]) Clear() {
	var zero T
	for i := range r.data {
		r.data[i] = zero
	}
	r.readIndex, r.writeIndex, r.count = 0, 0, 0
}

func (r *Ring[T]) Len() int { return r.count }

func (r *Ring[T]) IsEmpty() bool { return r.count == 0 }

func (r *Ring[T]) IsFull() bool { return r.count == r.size }
