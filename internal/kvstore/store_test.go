package kvstore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	Name  string `json:"name"`
	Coins int    `json:"coins"`
}

func TestStore_SetGetString(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	defer s.Close()

	require.NoError(t, s.Set(ctx, "token", "a.b.c"))

	v, ok, err := s.Get(ctx, "token")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a.b.c", v.String())
}

func TestStore_SetGetStructured(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	defer s.Close()

	require.NoError(t, s.Set(ctx, "user_data", profile{Name: "Ana", Coins: 12}))

	v, ok, err := s.Get(ctx, "user_data")
	require.NoError(t, err)
	require.True(t, ok)

	var got profile
	require.NoError(t, v.Decode(&got))
	assert.Equal(t, profile{Name: "Ana", Coins: 12}, got)
}

func TestStore_MissingKey(t *testing.T) {
	s := NewMemory()
	defer s.Close()

	_, ok, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_DeleteListSkipsEmptyKeys(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	defer s.Close()

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, s.Set(ctx, k, k))
	}
	require.NoError(t, s.DeleteList(ctx, []string{"a", "", "c"}))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, keys)

	// Nothing but empty keys never reaches the backend.
	require.NoError(t, s.DeleteList(ctx, []string{"", ""}))
}

func TestStore_ClearRemovesEverything(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	defer s.Close()

	require.NoError(t, s.Set(ctx, "token", "x"))
	require.NoError(t, s.Set(ctx, "mission_progress", map[string]int{"play-game": 1}))
	require.NoError(t, s.Clear(ctx))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestStore_KeysAreDecoded(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	s := New(func(context.Context) (Backend, error) { return backend, nil })
	defer s.Close()

	require.NoError(t, s.Set(ctx, "missions_last_rotate", "1700000000000"))

	raw, err := backend.Keys(ctx)
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.NotEqual(t, "missions_last_rotate", raw[0], "backend should only see the encoded key")

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"missions_last_rotate"}, keys)
}

func TestStore_UndecodableValueReadsAsMissing(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	require.NoError(t, backend.Set(ctx, encodeKey("token"), "%%% not base64 %%%"))

	s := New(func(context.Context) (Backend, error) { return backend, nil })
	defer s.Close()

	_, ok, err := s.Get(ctx, "token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_LazyInitializationRunsOnce(t *testing.T) {
	var calls atomic.Int32
	s := New(func(context.Context) (Backend, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		return NewMemoryBackend(), nil
	})
	defer s.Close()

	assert.Equal(t, int32(0), calls.Load(), "opener must not run before first use")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.Get(context.Background(), "token")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestStore_UnavailableBackendFailsSoftly(t *testing.T) {
	ctx := context.Background()
	s := New(func(context.Context) (Backend, error) {
		return nil, errors.New("indexeddb not supported")
	})
	defer s.Close()

	assert.False(t, s.Available(ctx))

	_, ok, err := s.Get(ctx, "token")
	require.NoError(t, err, "reads never fail on an unavailable store")
	assert.False(t, ok)

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	assert.ErrorIs(t, s.Set(ctx, "token", "x"), ErrUnavailable)
	assert.ErrorIs(t, s.Delete(ctx, "token"), ErrUnavailable)
	assert.ErrorIs(t, s.Clear(ctx), ErrUnavailable)
}

func TestStore_NilOpenerIsUnavailable(t *testing.T) {
	s := New(nil)
	defer s.Close()

	_, ok, err := s.Get(context.Background(), "token")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, s.Set(context.Background(), "token", "x"), ErrUnavailable)
}

func TestStore_CallerContextCancelledWhileWaiting(t *testing.T) {
	release := make(chan struct{})
	s := New(func(context.Context) (Backend, error) {
		<-release
		return NewMemoryBackend(), nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, err := s.Get(ctx, "token")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The abandoned wait must not poison initialization for later callers.
	close(release)
	require.NoError(t, s.Set(context.Background(), "token", "x"))
	require.NoError(t, s.Close())
}

func TestStore_CloseBeforeUseNeverOpens(t *testing.T) {
	var calls atomic.Int32
	s := New(func(context.Context) (Backend, error) {
		calls.Add(1)
		return NewMemoryBackend(), nil
	})

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Set(context.Background(), "token", "x"), ErrUnavailable)
	assert.Equal(t, int32(0), calls.Load())
}

func TestStore_SealedCodecRoundTrip(t *testing.T) {
	ctx := context.Background()
	codec, err := NewSealedCodec("a-long-enough-secret-for-the-store!!")
	require.NoError(t, err)

	backend := NewMemoryBackend()
	s := New(func(context.Context) (Backend, error) { return backend, nil }, WithCodec(codec))
	defer s.Close()

	require.NoError(t, s.Set(ctx, "verify", "proof-123"))

	raw, ok, err := backend.Get(ctx, encodeKey("verify"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, raw, "proof-123")

	v, ok, err := s.Get(ctx, "verify")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "proof-123", v.String())
}
