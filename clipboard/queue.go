package clipboard

import (
	"context"

	"github.com/poiesic/shadowpaste/core"
)

// queue is an unbounded FIFO between the monitor goroutine and a single
// consumer. push never blocks on a slow consumer.
type queue struct {
	in  chan core.Capture
	out chan core.Capture
}

func newQueue() *queue {
	return &queue{
		in:  make(chan core.Capture),
		out: make(chan core.Capture),
	}
}

func (q *queue) push(ctx context.Context, c core.Capture) bool {
	select {
	case q.in <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

// close stops intake. Buffered captures are still delivered.
func (q *queue) close() {
	close(q.in)
}

func (q *queue) run(ctx context.Context) {
	defer close(q.out)
	var pending []core.Capture
	in := q.in
	for in != nil || len(pending) > 0 {
		var out chan core.Capture
		var next core.Capture
		if len(pending) > 0 {
			out = q.out
			next = pending[0]
		}
		select {
		case c, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			pending = append(pending, c)
		case out <- next:
			pending[0] = core.Capture{}
			pending = pending[1:]
		case <-ctx.Done():
			return
		}
	}
}
