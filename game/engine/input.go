package engine

// InputQueue buffers movement commands between frames. Producers never block;
// the frame tick drains it.
type InputQueue struct {
	ch chan Direction
}

// NewInputQueue creates a queue holding up to size commands
func NewInputQueue(size int) *InputQueue {
	if size <= 0 {
		size = DefaultInputBuffer
	}
	return &InputQueue{ch: make(chan Direction, size)}
}

// Enqueue adds a command, failing with ErrInputQueueFull when the buffer is full
func (q *InputQueue) Enqueue(d Direction) error {
	select {
	case q.ch <- d:
		return nil
	default:
		return ErrInputQueueFull
	}
}

// Drain removes and returns every queued command in arrival order
func (q *InputQueue) Drain() []Direction {
	var out []Direction
	for {
		select {
		case d := <-q.ch:
			out = append(out, d)
		default:
			return out
		}
	}
}

// Len returns the number of queued commands
func (q *InputQueue) Len() int {
	return len(q.ch)
}
