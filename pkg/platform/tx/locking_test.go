package tx

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockingRunInTx(t *testing.T) {
	t.Run("nested calls do not deadlock", func(t *testing.T) {
		l := NewLocking()
		calls := 0
		err := l.RunInTx(context.Background(), func(ctx context.Context) error {
			calls++
			return l.RunInTx(ctx, func(context.Context) error {
				calls++
				return nil
			})
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("propagates fn error", func(t *testing.T) {
		boom := errors.New("boom")
		err := NewLocking().RunInTx(context.Background(), func(context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled context never runs fn", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewLocking().RunInTx(ctx, func(context.Context) error {
			t.Fatal("fn must not run")
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("serializes concurrent units", func(t *testing.T) {
		l := NewLocking()
		counter := 0
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = l.RunInTx(context.Background(), func(context.Context) error {
					v := counter
					counter = v + 1
					return nil
				})
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, counter)
	})
}
