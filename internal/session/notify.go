package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Reason string

const (
	// ReasonExpired is a local detection: the ticker or a call-time check.
	ReasonExpired Reason = "expired"
	// ReasonForbidden is a 403 from an authenticated endpoint.
	ReasonForbidden Reason = "forbidden"
)

// Notice is published once per ended session.
type Notice struct {
	Epoch  uint64    `json:"epoch"`
	Reason Reason    `json:"reason"`
	At     time.Time `json:"at"`
}

type Listener func(Notice)

type listeners struct {
	mu   sync.Mutex
	subs map[uuid.UUID]Listener
	// order keeps delivery deterministic.
	order []uuid.UUID
}

func (l *listeners) add(fn Listener) func() {
	id := uuid.New()
	l.mu.Lock()
	if l.subs == nil {
		l.subs = map[uuid.UUID]Listener{}
	}
	l.subs[id] = fn
	l.order = append(l.order, id)
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.subs, id)
			for i, v := range l.order {
				if v == id {
					l.order = append(l.order[:i], l.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (l *listeners) snapshot() []Listener {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Listener, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.subs[id])
	}
	return out
}
