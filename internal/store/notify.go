package store

import (
	"sync"

	"github.com/google/uuid"
)

// notifier fans out "collection changed" signals to live subscribers of a
// user's journal collection. Signals are coalesced: a slow subscriber sees
// at most one pending signal.
type notifier struct {
	mu   sync.Mutex
	subs map[string]map[string]chan struct{}
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[string]map[string]chan struct{})}
}

func (n *notifier) subscribe(userID string) (<-chan struct{}, func()) {
	id := uuid.NewString()
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	if n.subs[userID] == nil {
		n.subs[userID] = make(map[string]chan struct{})
	}
	n.subs[userID][id] = ch
	n.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs[userID], id)
			if len(n.subs[userID]) == 0 {
				delete(n.subs, userID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

func (n *notifier) publish(userID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs[userID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
