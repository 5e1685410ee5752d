package noise

import "github.com/san-kum/leap/internal/dynamo"

// Lag delays snapshots by a fixed number of steps.
type Lag struct {
	queue []dynamo.State
}

// Trim drops the oldest snapshots until at most n remain.
func (l *Lag) Trim(n int) {
	if n < 0 {
		n = 0
	}
	if excess := len(l.queue) - n; excess > 0 {
		clear(l.queue[:excess])
		l.queue = l.queue[excess:]
	}
}

// Push enqueues s and returns the snapshot to publish: the oldest queued one
// once n are buffered, s itself while the queue is still filling or when n
// is zero.
func (l *Lag) Push(s dynamo.State, n int) dynamo.State {
	out := s
	if n > 0 && len(l.queue) >= n {
		out = l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
	}
	if n > 0 {
		l.queue = append(l.queue, s)
	}
	return out
}

func (l *Lag) Len() int { return len(l.queue) }

func (l *Lag) Reset() {
	clear(l.queue)
	l.queue = l.queue[:0]
}
