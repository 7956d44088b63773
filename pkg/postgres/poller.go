package postgres

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"

	"github.com/jakechorley/shift-swap/pkg/docstore"
)

const pollInterval = 2 * time.Second

// startPoller delivers the initial batch immediately, then re-fetches on an
// interval and delivers only when the result set changed. Cancellation stops
// the poller; no callback fires after cancel.
func startPoller[T any](initial []T, cb func([]T), fetch func() ([]T, error)) docstore.CancelFunc {
	done := make(chan struct{})

	go func() {
		last, _ := json.Marshal(initial)
		cb(initial)

		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				batch, err := fetch()
				if err != nil {
					// Transient read failures leave the view stale
					// rather than crashing the consumer.
					continue
				}
				current, err := json.Marshal(batch)
				if err != nil || bytes.Equal(current, last) {
					continue
				}
				last = current

				select {
				case <-done:
					return
				default:
				}
				cb(batch)
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
