package calls

import (
	"sync"
	"time"
)

// repeatingTask is a cancellable periodic job. Stop is idempotent and never
// blocks, so teardown can always call it unconditionally.
type repeatingTask struct {
	stop chan struct{}
	once sync.Once
}

func startRepeatingTask(interval time.Duration, fn func()) *repeatingTask {
	t := &repeatingTask{stop: make(chan struct{})}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	return t
}

func (t *repeatingTask) Stop() {
	t.once.Do(func() {
		close(t.stop)
	})
}
