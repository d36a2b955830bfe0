package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetSetClear(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 0))
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, s.Clear(ctx, "k"))
	_, ok, _ = s.Get(ctx, "k")
	assert.False(t, ok)
}

func TestStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))
	now = now.Add(59 * time.Second)
	_, ok, _ := s.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok, _ = s.Get(ctx, "k")
	assert.False(t, ok)
}

func TestLocker_SerialisesSameKey(t *testing.T) {
	ctx := context.Background()
	l := NewLocker()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Lock(ctx, "cart:s1")
			if !assert.NoError(t, err) {
				return
			}
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Empty(t, l.locks)
}

func TestLocker_ContextCancelled(t *testing.T) {
	l := NewLocker()
	release, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLocker_ReleaseTwiceIsSafe(t *testing.T) {
	l := NewLocker()
	release, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	release()
	release()

	release, err = l.Lock(context.Background(), "k")
	require.NoError(t, err)
	release()
}
