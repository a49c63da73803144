package telegram

import "sync"

// dispatcher fans work out to a fixed set of workers. Items with the same key
// always land on the same worker, so they are handled one at a time and in order.
type dispatcher[T any] struct {
	queues []chan T
	wg     sync.WaitGroup
}

func newDispatcher[T any](workers, buffer int, handle func(T)) *dispatcher[T] {
	if workers <= 0 {
		workers = 1
	}
	d := &dispatcher[T]{queues: make([]chan T, workers)}
	for i := range d.queues {
		q := make(chan T, buffer)
		d.queues[i] = q
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for item := range q {
				handle(item)
			}
		}()
	}
	return d
}

func (d *dispatcher[T]) dispatch(key int64, item T) {
	d.queues[shard(key, len(d.queues))] <- item
}

// close stops accepting work and waits for queued items to finish.
func (d *dispatcher[T]) close() {
	for _, q := range d.queues {
		close(q)
	}
	d.wg.Wait()
}

func shard(key int64, n int) int {
	return int(uint64(key) % uint64(n))
}
