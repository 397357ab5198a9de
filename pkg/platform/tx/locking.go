package tx

import (
	"context"
	"sync"
)

type lockHeldKey struct{}

// Locking is an in-memory Runner that serializes units of work behind one mutex.
// Nested calls on a context that already holds the lock run inline.
type Locking struct {
	mu sync.Mutex
}

// NewLocking returns a Runner for in-memory stores.
func NewLocking() *Locking {
	return &Locking{}
}

func (l *Locking) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if held, _ := ctx.Value(lockHeldKey{}).(*Locking); held == l {
		return fn(ctx)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(context.WithValue(ctx, lockHeldKey{}, l))
}
