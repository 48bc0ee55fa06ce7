package pix

// Queue is an unbounded FIFO between the two engines. Go channels are
// bounded, but the RIA must never block on send: the VGA side may lag by an
// arbitrary number of undelivered events. A goroutine shuttles events
// through an in-memory buffer between the two endpoint channels, preserving
// order.
//
// Closing the input side drains the buffer into the output side and then
// closes it, which is the VGA loop's termination signal.
type Queue struct {
	in  chan Event
	out chan Event
}

// NewQueue starts the shuttle goroutine and returns the queue.
func NewQueue() *Queue {
	q := &Queue{
		in:  make(chan Event),
		out: make(chan Event),
	}
	go q.pump()
	return q
}

// Send enqueues an event. It never blocks on the consumer.
func (q *Queue) Send(e Event) {
	q.in <- e
}

// Events returns the receive side for the consumer loop.
func (q *Queue) Events() <-chan Event {
	return q.out
}

// Close stops the producer side. Buffered events are still delivered before
// the receive side closes.
func (q *Queue) Close() {
	close(q.in)
}

func (q *Queue) pump() {
	var buf []Event
	in := q.in
	for in != nil || len(buf) > 0 {
		var (
			out  chan Event
			next Event
		)
		if len(buf) > 0 {
			out = q.out
			next = buf[0]
		}
		select {
		case e, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			buf = append(buf, e)
		case out <- next:
			buf = buf[1:]
		}
	}
	close(q.out)
}
