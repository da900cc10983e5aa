// neurodvach/models/services.go
package models

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// --- Stateful Services ---

// ThreadLocks hands out one lock per thread id so that AI replies to the same
// thread are generated one at a time. Entries are dropped when nobody holds them.
type ThreadLocks struct {
	Mu    sync.Mutex
	Locks map[int64]*threadLock
}

type threadLock struct {
	sem  chan struct{}
	refs int
}

func NewThreadLocks() *ThreadLocks {
	return &ThreadLocks{Locks: make(map[int64]*threadLock)}
}

// Lock waits until the caller owns the thread or ctx is done. On success it
// returns the matching unlock func; on failure it returns ctx.Err().
func (tl *ThreadLocks) Lock(ctx context.Context, threadID int64) (unlock func(), err error) {
	tl.Mu.Lock()
	l, ok := tl.Locks[threadID]
	if !ok {
		l = &threadLock{sem: make(chan struct{}, 1)}
		tl.Locks[threadID] = l
	}
	l.refs++
	tl.Mu.Unlock()

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		tl.release(threadID, l)
		return nil, ctx.Err()
	}
	return func() {
		<-l.sem
		tl.release(threadID, l)
	}, nil
}

func (tl *ThreadLocks) release(threadID int64, l *threadLock) {
	tl.Mu.Lock()
	defer tl.Mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(tl.Locks, threadID)
	}
}

// Len returns the number of threads currently locked or waited on.
func (tl *ThreadLocks) Len() int {
	tl.Mu.Lock()
	defer tl.Mu.Unlock()
	return len(tl.Locks)
}

// KeyLimiter paces requests made with the shared, process-wide AI key.
type KeyLimiter struct {
	limiter *rate.Limiter
}

// NewKeyLimiter allows perMinute requests per minute; zero or less means no limit.
func NewKeyLimiter(perMinute int) *KeyLimiter {
	if perMinute <= 0 {
		return &KeyLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	every := time.Minute / time.Duration(perMinute)
	return &KeyLimiter{limiter: rate.NewLimiter(rate.Every(every), perMinute)}
}

// Wait blocks until the next request may go out.
func (kl *KeyLimiter) Wait(ctx context.Context) error {
	return kl.limiter.Wait(ctx)
}
