package pool

// Resettable is a constraint for types that have a Reset() method.
type Resettable interface {
	Reset()
}

// Poolable values can be reset and compared against their zero value.
type Poolable interface {
	Resettable
	comparable
}

// Pool is a bounded free list of reusable values, used for response
// encoding buffers.
type Pool[T Poolable] struct {
	items chan T
	newFn func() T
}

// New creates a Pool holding at most capacity idle values.
// newFn builds a value when the pool is empty; it may be nil.
func New[T Poolable](capacity int, newFn func() T) *Pool[T] {
	return &Pool[T]{
		items: make(chan T, capacity),
		newFn: newFn,
	}
}

// Get returns an idle value, a fresh one from newFn, or the zero value.
func (p *Pool[T]) Get() T {
	select {
	case item := <-p.items:
		return item
	default:
	}

	if p.newFn != nil {
		return p.newFn()
	}
	var zero T
	return zero
}

// Put resets item and keeps it if there is room. Zero values are dropped.
func (p *Pool[T]) Put(item T) {
	var zero T
	if item == zero {
		return
	}
	item.Reset()

	select {
	case p.items <- item:
	default:
	}
}

// Idle reports how many values are waiting for reuse.
func (p *Pool[T]) Idle() int {
	return len(p.items)
}
