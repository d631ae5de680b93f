// Package notifier delivers composed messages to outbound chat channels.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"parking-finder/utils"
)

// Notifier sends one message to one channel.
type Notifier interface {
	Name() string
	Send(ctx context.Context, text string) error
}

// Result summarises the delivery of a chunk list to one channel.
type Result struct {
	Channel string
	Sent    int
	Failed  int
	Err     error
}

// Dispatcher fans an ordered chunk list out to every configured channel.
// Each channel runs as one pool job, so chunks reach a channel in order.
type Dispatcher struct {
	notifiers []Notifier
	pool      *utils.WorkerPool
	retry     *utils.RetryConfig
	logger    *utils.Logger
}

// NewDispatcher creates a Dispatcher. rateLimitMs is the minimum gap between
// two sends across all channels.
func NewDispatcher(logger *utils.Logger, retry *utils.RetryConfig, rateLimitMs int, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		notifiers: notifiers,
		pool:      utils.NewWorkerPool(len(notifiers), rateLimitMs),
		retry:     retry,
		logger:    logger,
	}
}

// Len returns the number of configured channels.
func (d *Dispatcher) Len() int {
	return len(d.notifiers)
}

// Dispatch sends chunks to every channel and blocks until all are done.
// Failures are logged and reported in the results; they never stop the
// other channels.
func (d *Dispatcher) Dispatch(ctx context.Context, chunks []string) []Result {
	results := make([]Result, len(d.notifiers))
	if len(chunks) == 0 {
		return results
	}

	var mu sync.Mutex
	for i, n := range d.notifiers {
		i, n := i, n
		d.pool.Submit(func() {
			res := d.deliver(ctx, n, chunks)
			mu.Lock()
			results[i] = res
			mu.Unlock()
		})
	}
	d.pool.Wait()

	for _, res := range results {
		if res.Err != nil {
			d.logger.Error("[notifier] %s: %d of %d message(s) delivered: %v",
				res.Channel, res.Sent, len(chunks), res.Err)
			continue
		}
		d.logger.Info("[notifier] %s: %d message(s) delivered", res.Channel, res.Sent)
	}
	return results
}

func (d *Dispatcher) deliver(ctx context.Context, n Notifier, chunks []string) Result {
	res := Result{Channel: n.Name()}
	var errs []error

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		if err := d.pool.Pace(ctx); err != nil {
			errs = append(errs, err)
			break
		}
		d.logger.Debug("[notifier] %s: sending chunk %d/%d (%d bytes)", n.Name(), i+1, len(chunks), len(chunk))

		err := d.retry.Do(ctx, fmt.Sprintf("%s-chunk-%d", n.Name(), i+1), func() error {
			return n.Send(ctx, chunk)
		})
		if err != nil {
			res.Failed++
			errs = append(errs, err)
			continue
		}
		res.Sent++
	}

	res.Err = errors.Join(errs...)
	return res
}
