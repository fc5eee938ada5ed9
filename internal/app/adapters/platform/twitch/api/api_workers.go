package api

import (
	"sync"
)

// TwitchPool runs API requests on a fixed set of workers.
type TwitchPool struct {
	wg    sync.WaitGroup
	tasks chan func()

	mu      sync.RWMutex
	stopped bool
}

func newTwitchPool(workers, queue int) *TwitchPool {
	p := &TwitchPool{tasks: make(chan func(), queue)}
	for range workers {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit queues task, blocking while the queue is full.
func (p *TwitchPool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrPoolStopped
	}
	p.tasks <- task
	return nil
}

func (p *TwitchPool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *TwitchPool) worker() {
	defer p.wg.Done()

	for task := range p.tasks {
		task()
	}
}
