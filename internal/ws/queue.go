package ws

import (
	"time"

	"github.com/gammazero/deque"
)

type waitingEntry struct {
	ID       string
	Name     string
	Client   *Client
	JoinedAt time.Time
}

// waitingQueue is the FIFO of players searching on one difficulty.
type waitingQueue struct {
	entries deque.Deque[*waitingEntry]
}

func (q *waitingQueue) push(e *waitingEntry) int {
	q.entries.PushBack(e)
	return q.entries.Len()
}

// popOther dequeues the oldest entry whose player id differs from id.
func (q *waitingQueue) popOther(id string) (*waitingEntry, bool) {
	i := q.entries.Index(func(e *waitingEntry) bool { return e.ID != id })
	if i < 0 {
		return nil, false
	}
	return q.entries.Remove(i), true
}

func (q *waitingQueue) remove(c *Client) bool {
	i := q.entries.Index(func(e *waitingEntry) bool { return e.Client == c })
	if i < 0 {
		return false
	}
	q.entries.Remove(i)
	return true
}

// removeIf drops every entry matching fn and returns them.
func (q *waitingQueue) removeIf(fn func(*waitingEntry) bool) []*waitingEntry {
	var removed []*waitingEntry
	for i := q.entries.Len() - 1; i >= 0; i-- {
		if e := q.entries.At(i); fn(e) {
			q.entries.Remove(i)
			removed = append(removed, e)
		}
	}
	return removed
}

func (q *waitingQueue) len() int {
	return q.entries.Len()
}
