package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/aswell/training-system/internal/domain"
	"github.com/aswell/training-system/internal/infrastructure/redis"
)

const catalogKey = "roles:catalog"

// CachedRoleRepository decorates a RoleRepository with a Redis read-through
// cache of the whole catalog. The catalog is small and changes rarely, so a
// single key holds the full list and every write drops it. Cache failures
// fall back to the inner repository.
type CachedRoleRepository struct {
	inner  domain.RoleRepository
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedRoleRepository wraps inner with a catalog cache.
func NewCachedRoleRepository(inner domain.RoleRepository, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedRoleRepository {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedRoleRepository{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

func (r *CachedRoleRepository) catalog() ([]*domain.Role, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	raw, err := r.cache.Get(ctx, catalogKey)
	if err == nil {
		var roles []*domain.Role
		if err := json.Unmarshal([]byte(raw), &roles); err == nil {
			return roles, nil
		}
		r.logger.Warn("role catalog cache entry is corrupt, dropping it")
		_ = r.cache.Delete(ctx, catalogKey)
	} else if !errors.Is(err, redis.ErrCacheMiss) {
		r.logger.Warn("role catalog cache read failed",
			slog.String("error", err.Error()),
		)
	}

	roles, err := r.inner.List()
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(roles); err == nil {
		if err := r.cache.Set(ctx, catalogKey, string(data), r.ttl); err != nil {
			r.logger.Warn("role catalog cache write failed",
				slog.String("error", err.Error()),
			)
		}
	}

	return roles, nil
}

func (r *CachedRoleRepository) invalidate() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := r.cache.Delete(ctx, catalogKey); err != nil {
		r.logger.Warn("role catalog cache invalidation failed",
			slog.String("error", err.Error()),
		)
	}
}

// List returns the catalog, served from cache when warm.
func (r *CachedRoleRepository) List() ([]*domain.Role, error) {
	return r.catalog()
}

// GetByID resolves a role from the cached catalog.
func (r *CachedRoleRepository) GetByID(id int16) (*domain.Role, error) {
	roles, err := r.catalog()
	if err != nil {
		return nil, err
	}
	for _, role := range roles {
		if role.ID == id {
			return role, nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetByCode resolves a role from the cached catalog.
func (r *CachedRoleRepository) GetByCode(code string) (*domain.Role, error) {
	roles, err := r.catalog()
	if err != nil {
		return nil, err
	}
	for _, role := range roles {
		if role.Code == code {
			return role, nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetByCodes filters the cached catalog, preserving its sort rank order.
func (r *CachedRoleRepository) GetByCodes(codes []string) ([]*domain.Role, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	roles, err := r.catalog()
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(codes))
	for _, code := range codes {
		wanted[code] = true
	}
	var matched []*domain.Role
	for _, role := range roles {
		if wanted[role.Code] {
			matched = append(matched, role)
		}
	}
	return matched, nil
}

// ExistsByCode checks the cached catalog for a code.
func (r *CachedRoleRepository) ExistsByCode(code string) (bool, error) {
	roles, err := r.catalog()
	if err != nil {
		return false, err
	}
	for _, role := range roles {
		if role.Code == code {
			return true, nil
		}
	}
	return false, nil
}

// Create writes through and drops the cached catalog.
func (r *CachedRoleRepository) Create(role *domain.Role) error {
	if err := r.inner.Create(role); err != nil {
		return err
	}
	r.invalidate()
	return nil
}

// Update writes through and drops the cached catalog.
func (r *CachedRoleRepository) Update(role *domain.Role) error {
	if err := r.inner.Update(role); err != nil {
		return err
	}
	r.invalidate()
	return nil
}

// Delete writes through and drops the cached catalog.
func (r *CachedRoleRepository) Delete(id int16) error {
	if err := r.inner.Delete(id); err != nil {
		return err
	}
	r.invalidate()
	return nil
}
