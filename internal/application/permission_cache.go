package application

import (
	"context"
	"sync"

	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
)

type permissionCacheKey struct{}

// permissionCache memoizes effective permissions for the lifetime of one request.
type permissionCache struct {
	mu   sync.Mutex
	sets map[string]entity.PermissionSet
}

// WithPermissionCache returns a context carrying an empty per-request cache.
// Calling it on a context that already has one is a no-op.
func WithPermissionCache(ctx context.Context) context.Context {
	if cacheFrom(ctx) != nil {
		return ctx
	}
	return context.WithValue(ctx, permissionCacheKey{}, &permissionCache{sets: map[string]entity.PermissionSet{}})
}

func cacheFrom(ctx context.Context) *permissionCache {
	c, _ := ctx.Value(permissionCacheKey{}).(*permissionCache)
	return c
}

func (c *permissionCache) get(userID string) (entity.PermissionSet, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.sets[userID]
	return set, ok
}

func (c *permissionCache) put(userID string, set entity.PermissionSet) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sets[userID] = set.Clone()
	c.mu.Unlock()
}

func (c *permissionCache) invalidate(userID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.sets, userID)
	c.mu.Unlock()
}

// invalidateAll is used when a role's permission set changes, since any user may hold it.
func (c *permissionCache) invalidateAll() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sets = map[string]entity.PermissionSet{}
	c.mu.Unlock()
}

type actorKey struct{}

// WithActor records the authenticated user performing the request, for audit events.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom returns the user recorded by WithActor, or "".
func ActorFrom(ctx context.Context) string {
	s, _ := ctx.Value(actorKey{}).(string)
	return s
}
