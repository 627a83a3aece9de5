package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// defaultInitTimeout bounds backend initialization when no option is given.
const defaultInitTimeout = 10 * time.Second

// Value is a decoded stored value. Strings come back as written; anything
// written as a structured value can be decoded back with Decode.
type Value struct {
	raw []byte
}

// String returns the raw value as text.
func (v Value) String() string {
	return string(v.raw)
}

// Bytes returns the raw value.
func (v Value) Bytes() []byte {
	return v.raw
}

// Decode unmarshals a JSON value into dst.
func (v Value) Decode(dst any) error {
	return json.Unmarshal(v.raw, dst)
}

// Store is the key/value store used by repositories. All operations are safe
// for concurrent use and may be called before the backend is ready; they
// wait on the shared initialization handle.
type Store struct {
	open        Opener
	codec       Codec
	initTimeout time.Duration

	once    sync.Once
	done    chan struct{}
	backend Backend
	initErr error

	warnOnce sync.Once
}

// Option customizes a Store.
type Option func(*Store)

// WithCodec replaces the default base64 codec.
func WithCodec(c Codec) Option {
	return func(s *Store) {
		s.codec = c
	}
}

// WithInitTimeout bounds how long the opener may take.
func WithInitTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.initTimeout = d
		}
	}
}

// New creates a Store around an opener. The opener is not called until the
// first operation. A nil opener yields a permanently unavailable store.
func New(open Opener, opts ...Option) *Store {
	s := &Store{
		open:        open,
		codec:       Base64Codec{},
		initTimeout: defaultInitTimeout,
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewMemory returns a Store over a fresh in-memory backend.
func NewMemory(opts ...Option) *Store {
	return New(func(context.Context) (Backend, error) {
		return NewMemoryBackend(), nil
	}, opts...)
}

// initialize runs the opener exactly once. It uses its own context so a
// cancelled first caller doesn't poison initialization for everyone else.
func (s *Store) initialize() {
	defer close(s.done)

	if s.open == nil {
		s.initErr = fmt.Errorf("no storage backend configured")
		slog.Warn("kvstore unavailable", slog.Any("error", s.initErr))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.initTimeout)
	defer cancel()

	b, err := s.open(ctx)
	if err != nil {
		s.initErr = err
		slog.Warn("kvstore unavailable, continuing without persistence", slog.Any("error", err))
		return
	}
	s.backend = b
}

// ready returns the backend once initialization finished. It returns
// ErrUnavailable if initialization failed and the caller's context error if
// the caller gave up waiting.
func (s *Store) ready(ctx context.Context) (Backend, error) {
	s.once.Do(func() { go s.initialize() })

	select {
	case <-s.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if s.initErr != nil {
		return nil, ErrUnavailable
	}
	return s.backend, nil
}

// Available waits for initialization and reports whether a backend is usable.
func (s *Store) Available(ctx context.Context) bool {
	_, err := s.ready(ctx)
	return err == nil
}

// Get reads a value. A missing key, an unavailable backend and an
// undecodable stored value all report found=false with a nil error.
func (s *Store) Get(ctx context.Context, key string) (Value, bool, error) {
	b, err := s.ready(ctx)
	if errors.Is(err, ErrUnavailable) {
		s.warnUnavailable()
		return Value{}, false, nil
	}
	if err != nil {
		return Value{}, false, err
	}

	stored, ok, err := b.Get(ctx, encodeKey(key))
	if err != nil {
		return Value{}, false, fmt.Errorf("reading %s: %w", key, err)
	}
	if !ok {
		return Value{}, false, nil
	}

	plain, err := s.codec.Decode(stored)
	if err != nil {
		slog.Warn("discarding undecodable stored value",
			slog.String("key", key),
			slog.Any("error", err),
		)
		return Value{}, false, nil
	}
	return Value{raw: plain}, true, nil
}

// Set writes a value. Strings and byte slices are stored verbatim, every
// other value is JSON-encoded.
func (s *Store) Set(ctx context.Context, key string, val any) error {
	plain, err := encodeValue(val)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}

	b, err := s.ready(ctx)
	if err != nil {
		return err
	}

	stored, err := s.codec.Encode(plain)
	if err != nil {
		return fmt.Errorf("sealing %s: %w", key, err)
	}
	if err := b.Set(ctx, encodeKey(key), stored); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Delete removes a key.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.DeleteList(ctx, []string{key})
}

// DeleteList removes several keys. Empty keys are skipped.
func (s *Store) DeleteList(ctx context.Context, keys []string) error {
	encoded := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			encoded = append(encoded, encodeKey(k))
		}
	}
	if len(encoded) == 0 {
		return nil
	}

	b, err := s.ready(ctx)
	if err != nil {
		return err
	}
	if err := b.Delete(ctx, encoded...); err != nil {
		return fmt.Errorf("deleting keys: %w", err)
	}
	return nil
}

// Clear removes every key in the store.
func (s *Store) Clear(ctx context.Context) error {
	b, err := s.ready(ctx)
	if err != nil {
		return err
	}
	if err := b.Clear(ctx); err != nil {
		return fmt.Errorf("clearing store: %w", err)
	}
	return nil
}

// Keys lists every key in the store. An unavailable store has no keys.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	b, err := s.ready(ctx)
	if errors.Is(err, ErrUnavailable) {
		s.warnUnavailable()
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	stored, err := b.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}

	keys := make([]string, 0, len(stored))
	for _, sk := range stored {
		k, err := decodeKey(sk)
		if err != nil {
			slog.Warn("skipping foreign key in store", slog.String("key", sk))
			continue
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Close releases the backend. A store closed before first use never opens it.
func (s *Store) Close() error {
	s.once.Do(func() {
		s.initErr = errClosed
		close(s.done)
	})
	<-s.done

	if s.backend != nil {
		return s.backend.Close()
	}
	return nil
}

func (s *Store) warnUnavailable() {
	s.warnOnce.Do(func() {
		slog.Warn("kvstore read on unavailable backend, returning empty values")
	})
}

// encodeValue converts a value to the bytes that get stored.
func encodeValue(val any) ([]byte, error) {
	switch v := val.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(v)
	}
}
