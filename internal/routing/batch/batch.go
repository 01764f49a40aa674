package batch

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/wesleywu/winroute/internal/logger"
	"github.com/wesleywu/winroute/internal/routing/entities"
)

// DefaultConcurrency is used when the caller passes a non-positive limit
const DefaultConcurrency = 8

// OperationFunc applies one route, typically RouteManager.AddRoute or DeleteRoute
type OperationFunc func(entities.Route) error

// Process runs operationFunc over routes on a bounded goroutine pool. Every
// route is attempted; failures are joined into the returned error, each
// still matching its own errors.Is target.
func Process(action string, routes []entities.Route, operationFunc OperationFunc, concurrencyLimit int, log *logger.Logger) error {
	if len(routes) == 0 {
		return nil
	}
	if concurrencyLimit <= 0 {
		concurrencyLimit = DefaultConcurrency
	}
	if log == nil {
		log = logger.Nop()
	}

	pool, err := ants.NewPool(min(concurrencyLimit, len(routes)))
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	start := time.Now()
	errs := make([]error, len(routes))
	var wg sync.WaitGroup

	for i, route := range routes {
		i, route := i, route // per-iteration copies (pre-Go 1.22 loop semantics)
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := operationFunc(route); err != nil {
				errs[i] = fmt.Errorf("%s %s: %w", action, route.Prefix(), err)
			}
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = fmt.Errorf("%s %s: %w", action, route.Prefix(), submitErr)
		}
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	log.BatchOperation(action, len(routes), len(routes)-failed, failed, time.Since(start).Milliseconds())

	return errors.Join(errs...)
}
