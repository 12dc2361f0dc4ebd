package ctxsync

import (
	"context"
	"sync"
)

// Cond is a sync.Cond that can wait with a context.
type Cond struct {
	*sync.Cond
}

// WaitCtx waits to be notified or canceled. The caller must hold c.L.
//
// On success c.L is held again, as with Wait. If the context ends first,
// the context error is returned and c.L is NOT held by the caller: it is
// reacquired and released in the background once the wait is notified.
func (c *Cond) WaitCtx(ctx context.Context) error {
	woken := make(chan struct{})
	go func() {
		defer close(woken)
		c.Cond.Wait()
	}()

	select {
	case <-woken:
		return nil
	case <-ctx.Done():
		go func() {
			defer c.Cond.L.Unlock()
			<-woken
		}()
		return ctx.Err()
	}
}
