// Package notify holds the transient toast log shown on top of every screen.
package notify

import (
	"strconv"
	"sync"
	"time"

	"github.com/RigelNana/vitalicio/pkg/metrics"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

const DefaultTTL = 6 * time.Second

type Toast struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

type Options struct {
	TTL time.Duration
	// MaxVisible trims the oldest toasts once exceeded. Zero means unbounded.
	MaxVisible int
}

// Queue is append/expire only. Every toast is removed by its own timer.
type Queue struct {
	ttl        time.Duration
	maxVisible int
	now        func() time.Time

	mu        sync.Mutex
	entries   []Toast
	timers    map[string]*time.Timer
	seq       uint64
	listeners map[int]func([]Toast)
	nextSub   int
	closed    bool
}

func NewQueue(opts Options) *Queue {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	return &Queue{
		ttl:        opts.TTL,
		maxVisible: opts.MaxVisible,
		now:        time.Now,
		timers:     map[string]*time.Timer{},
		listeners:  map[int]func([]Toast){},
	}
}

func (q *Queue) Success(message string) Toast {
	return q.Push(message, SeveritySuccess)
}

func (q *Queue) Error(message string) Toast {
	return q.Push(message, SeverityError)
}

// Push appends a toast and schedules its removal after the queue TTL. An empty
// severity defaults to success.
func (q *Queue) Push(message string, severity Severity) Toast {
	if severity == "" {
		severity = SeveritySuccess
	}
	metrics.NotificationsTotal.WithLabelValues(string(severity)).Inc()

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return Toast{}
	}
	now := q.now()
	q.seq++
	t := Toast{
		ID:        strconv.FormatInt(now.UnixMilli(), 10) + "-" + strconv.FormatUint(q.seq, 10),
		Message:   message,
		Severity:  severity,
		CreatedAt: now,
	}
	q.entries = append(q.entries, t)
	q.timers[t.ID] = time.AfterFunc(q.ttl, func() { q.expire(t.ID) })
	if q.maxVisible > 0 {
		for len(q.entries) > q.maxVisible {
			q.removeLocked(q.entries[0].ID)
		}
	}
	snapshot, cbs := q.snapshotLocked()
	q.mu.Unlock()

	notifyAll(cbs, snapshot)
	return t
}

// Entries returns the live toasts in push order.
func (q *Queue) Entries() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Toast{}, q.entries...)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

func (q *Queue) Subscribe(cb func([]Toast)) func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	id := q.nextSub
	q.nextSub++
	q.listeners[id] = cb
	return func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		delete(q.listeners, id)
	}
}

// Close stops every pending timer. Pushes after Close are dropped.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	q.entries = nil
}

func (q *Queue) expire(id string) {
	q.mu.Lock()
	if !q.removeLocked(id) {
		q.mu.Unlock()
		return
	}
	snapshot, cbs := q.snapshotLocked()
	q.mu.Unlock()

	notifyAll(cbs, snapshot)
}

func (q *Queue) removeLocked(id string) bool {
	if t, ok := q.timers[id]; ok {
		t.Stop()
		delete(q.timers, id)
	}
	for i, e := range q.entries {
		if e.ID == id {
			q.entries = append(q.entries[:i:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (q *Queue) snapshotLocked() ([]Toast, []func([]Toast)) {
	snapshot := append([]Toast{}, q.entries...)
	cbs := make([]func([]Toast), 0, len(q.listeners))
	for _, cb := range q.listeners {
		cbs = append(cbs, cb)
	}
	return snapshot, cbs
}

func notifyAll(cbs []func([]Toast), snapshot []Toast) {
	for _, cb := range cbs {
		cb(snapshot)
	}
}
