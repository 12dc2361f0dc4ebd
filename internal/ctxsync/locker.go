package ctxsync

import (
	"context"
	"sync"
)

// Locker is a sync.Locker that can also be acquired with a context.
type Locker struct {
	sync.Locker
}

type tryLocker interface {
	TryLock() bool
}

// LockCtx acquires the lock or returns the context error.
// When the context ends first, the lock is released again as soon as the
// pending acquisition completes.
func (l *Locker) LockCtx(ctx context.Context) error {
	if tl, ok := l.Locker.(tryLocker); ok && tl.TryLock() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	locked := make(chan struct{})
	go func() {
		defer close(locked)
		l.Locker.Lock()
	}()

	select {
	case <-locked:
		return nil
	case <-ctx.Done():
		go func() {
			<-locked
			l.Unlock()
		}()
		return ctx.Err()
	}
}
