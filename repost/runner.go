package repost

import "sync"

// Runner serializes reconciliation passes: the cron trigger and the admin
// command share one Runner so two passes never run over the same posts
// concurrently, and shutdown can wait for the in-flight pass to finish.
type Runner struct {
	mu sync.Mutex
	wg sync.WaitGroup
}

// Do runs fn exclusively with respect to other passes.
func (r *Runner) Do(fn func()) {
	r.wg.Add(1)
	defer r.wg.Done()
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}

// Go runs fn like Do but on its own goroutine. The pass is registered
// before the goroutine is spawned, so a Wait that starts immediately after
// Go returns cannot miss it.
func (r *Runner) Go(fn func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.mu.Lock()
		defer r.mu.Unlock()
		fn()
	}()
}

// Wait blocks until no pass is running.
func (r *Runner) Wait() {
	r.wg.Wait()
}
