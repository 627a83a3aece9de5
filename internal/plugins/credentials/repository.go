package credentials

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/keyxmakerx/sproutfound/internal/kvstore"
)

// Repository defines the credential storage contract. Getters return the
// empty string (or nil) when a value is absent.
type Repository interface {
	SetToken(ctx context.Context, token string) error
	GetToken(ctx context.Context) (string, error)
	RemoveToken(ctx context.Context) error

	SetVerify(ctx context.Context, verify string) error
	GetVerify(ctx context.Context) (string, error)
	RemoveVerify(ctx context.Context) error

	SetIP(ctx context.Context, ip string) error
	GetIP(ctx context.Context) (string, error)
	RemoveIP(ctx context.Context) error

	SetUserData(ctx context.Context, data *UserData) error
	GetUserData(ctx context.Context) (*UserData, error)
	RemoveUserData(ctx context.Context) error

	// ClearAll wipes the whole store, not only the four credential keys.
	// Logging out therefore also drops mission progress and rotation state.
	ClearAll(ctx context.Context) error
}

// repository implements Repository on a kvstore.Store.
type repository struct {
	store *kvstore.Store
}

// NewRepository creates a credential repository over store.
func NewRepository(store *kvstore.Store) Repository {
	return &repository{store: store}
}

func (r *repository) SetToken(ctx context.Context, token string) error {
	return r.setString(ctx, KeyToken, token)
}

func (r *repository) GetToken(ctx context.Context) (string, error) {
	return r.getString(ctx, KeyToken)
}

func (r *repository) RemoveToken(ctx context.Context) error {
	return r.store.Delete(ctx, KeyToken)
}

func (r *repository) SetVerify(ctx context.Context, verify string) error {
	return r.setString(ctx, KeyVerify, verify)
}

func (r *repository) GetVerify(ctx context.Context) (string, error) {
	return r.getString(ctx, KeyVerify)
}

func (r *repository) RemoveVerify(ctx context.Context) error {
	return r.store.Delete(ctx, KeyVerify)
}

func (r *repository) SetIP(ctx context.Context, ip string) error {
	return r.setString(ctx, KeyIP, ip)
}

func (r *repository) GetIP(ctx context.Context) (string, error) {
	return r.getString(ctx, KeyIP)
}

func (r *repository) RemoveIP(ctx context.Context) error {
	return r.store.Delete(ctx, KeyIP)
}

func (r *repository) SetUserData(ctx context.Context, data *UserData) error {
	if err := r.store.Set(ctx, KeyUserData, data); err != nil {
		return fmt.Errorf("storing user data: %w", err)
	}
	return nil
}

// GetUserData returns nil when no profile is cached or the cached blob no
// longer decodes.
func (r *repository) GetUserData(ctx context.Context) (*UserData, error) {
	v, ok, err := r.store.Get(ctx, KeyUserData)
	if err != nil {
		return nil, fmt.Errorf("reading user data: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var data UserData
	if err := v.Decode(&data); err != nil {
		slog.Warn("discarding corrupt cached user data", slog.Any("error", err))
		return nil, nil
	}
	return &data, nil
}

func (r *repository) RemoveUserData(ctx context.Context) error {
	return r.store.Delete(ctx, KeyUserData)
}

func (r *repository) ClearAll(ctx context.Context) error {
	return r.store.Clear(ctx)
}

func (r *repository) setString(ctx context.Context, key, val string) error {
	if err := r.store.Set(ctx, key, val); err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	return nil
}

func (r *repository) getString(ctx context.Context, key string) (string, error) {
	v, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	if !ok {
		return "", nil
	}
	return v.String(), nil
}
