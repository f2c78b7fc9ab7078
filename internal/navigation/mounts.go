package navigation

import (
	"context"
	"sync"
)

// Mounts is the home view's mount-complete signal. Each Mounted call
// publishes a new document and wakes every waiter. The latest document stays
// latched so late waiters do not miss it.
type Mounts struct {
	mu         sync.Mutex
	doc        Document
	generation uint64
	changed    chan struct{}
}

// NewMounts creates an empty signal
func NewMounts() *Mounts {
	return &Mounts{changed: make(chan struct{})}
}

// Mounted publishes a freshly mounted home document
func (m *Mounts) Mounted(doc Document) {
	m.mu.Lock()
	m.doc = doc
	m.generation++
	close(m.changed)
	m.changed = make(chan struct{})
	m.mu.Unlock()
}

// Current returns the latest mounted document (nil before the first mount)
// and its generation
func (m *Mounts) Current() (Document, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc, m.generation
}

// Generation returns the number of mounts so far
func (m *Mounts) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// Wait blocks until a mount newer than generation after has happened
func (m *Mounts) Wait(ctx context.Context, after uint64) (Document, error) {
	for {
		m.mu.Lock()
		if m.generation > after {
			doc := m.doc
			m.mu.Unlock()
			return doc, nil
		}
		ch := m.changed
		m.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
