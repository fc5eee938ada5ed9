package tmi

import "sync"

type Handler func(Event)

// emitter delivers events in emission order on its own goroutine. The queue
// is unbounded so emitting never blocks the dispatcher, and handlers may call
// back into the client.
type emitter struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []Event
	handlers []Handler
	closed   bool
	done     chan struct{}
}

func newEmitter() *emitter {
	e := &emitter{done: make(chan struct{})}
	e.cond = sync.NewCond(&e.mu)
	go e.run()
	return e
}

func (e *emitter) subscribe(h Handler) {
	e.mu.Lock()
	e.handlers = append(e.handlers, h)
	e.mu.Unlock()
}

func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.queue = append(e.queue, ev)
	e.cond.Signal()
}

func (e *emitter) run() {
	defer close(e.done)

	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.closed {
			e.cond.Wait()
		}
		if len(e.queue) == 0 {
			e.mu.Unlock()
			return
		}

		ev := e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		handlers := e.handlers
		e.mu.Unlock()

		for _, h := range handlers {
			h(ev)
		}
	}
}

// close drains the queue and stops the delivery goroutine. It must not be
// called from a handler.
func (e *emitter) close() {
	e.mu.Lock()
	e.closed = true
	e.cond.Broadcast()
	e.mu.Unlock()

	<-e.done
}
