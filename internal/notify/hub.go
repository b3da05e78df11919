package notify

import (
	"context"
	"sync"
)

type subscription struct {
	tables map[string]struct{}
	ch     chan struct{}
}

func (s *subscription) matches(tables []string) bool {
	for _, table := range tables {
		if _, ok := s.tables[table]; ok {
			return true
		}
	}
	return false
}

// Hub is an in-process ChangeNotifier. Each subscriber channel holds at most
// one pending signal, so bursts of writes coalesce into one wake-up.
type Hub struct {
	mu   sync.Mutex
	subs map[*subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*subscription]struct{})}
}

func (h *Hub) Notify(_ context.Context, tables ...string) {
	if len(tables) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		if !sub.matches(tables) {
			continue
		}
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
}

func (h *Hub) Subscribe(tables ...string) (<-chan struct{}, func()) {
	sub := &subscription{
		tables: make(map[string]struct{}, len(tables)),
		ch:     make(chan struct{}, 1),
	}
	for _, table := range tables {
		sub.tables[table] = struct{}{}
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, sub)
			close(sub.ch)
			h.mu.Unlock()
		})
	}
	return sub.ch, cancel
}

func (h *Hub) subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
