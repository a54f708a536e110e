package resource

import "sync"

// Table maps handles to values of one type. Freed handles are reused
// lowest-first so handle numbers stay small across many invocations.
type Table[T any] struct {
	entries   map[Handle]T
	free      []Handle
	observers []Observer
	next      Handle
	mu        sync.RWMutex
	closed    bool
}

// NewTable creates an empty table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{
		entries: make(map[Handle]T),
		next:    1,
	}
}

// Insert adds a value and returns its handle.
// It returns 0 once the table is closed.
func (t *Table[T]) Insert(value T) Handle {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0
	}
	var h Handle
	if n := len(t.free); n > 0 {
		h = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		h = t.next
		t.next++
	}
	t.entries[h] = value
	t.mu.Unlock()

	t.notify(Event{Type: EventCreated, Handle: h, Value: value})
	return h
}

// Get retrieves a value by handle.
func (t *Table[T]) Get(h Handle) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.entries[h]
	return v, ok
}

// Remove drops a handle and returns (value, true) if it was present.
func (t *Table[T]) Remove(h Handle) (T, bool) {
	t.mu.Lock()
	v, ok := t.entries[h]
	if !ok {
		t.mu.Unlock()
		return v, false
	}
	delete(t.entries, h)
	t.releaseLocked(h)
	t.mu.Unlock()

	if d, ok := any(v).(Dropper); ok {
		d.Drop()
	}
	t.notify(Event{Type: EventDropped, Handle: h, Value: v})
	return v, true
}

// releaseLocked returns h to the free list, kept sorted descending so the
// lowest handle is popped first.
func (t *Table[T]) releaseLocked(h Handle) {
	i := len(t.free)
	t.free = append(t.free, h)
	for i > 0 && t.free[i-1] < h {
		t.free[i] = t.free[i-1]
		i--
	}
	t.free[i] = h
}

// Subscribe adds an observer for lifecycle events.
func (t *Table[T]) Subscribe(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
}

// Len returns the number of live handles.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Clear drops all handles.
func (t *Table[T]) Clear() {
	t.mu.RLock()
	handles := make([]Handle, 0, len(t.entries))
	for h := range t.entries {
		handles = append(handles, h)
	}
	t.mu.RUnlock()

	for _, h := range handles {
		t.Remove(h)
	}
}

// Close drops all handles and stops accepting inserts.
func (t *Table[T]) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.Clear()
	return nil
}

func (t *Table[T]) notify(e Event) {
	t.mu.RLock()
	obs := t.observers
	t.mu.RUnlock()
	for _, o := range obs {
		o.OnResourceEvent(e)
	}
}
