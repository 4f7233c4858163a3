package application_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oksasatya/rbac-admin-panel/internal/application"
	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
	"github.com/oksasatya/rbac-admin-panel/internal/infrastructure/memory"
	"github.com/oksasatya/rbac-admin-panel/pkg/helpers"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []application.AuditEvent
	err    error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := body.(application.AuditEvent); ok {
		p.events = append(p.events, ev)
	}
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// countingUserRoles counts RolesOfUser lookups on top of the memory repository.
type countingUserRoles struct {
	*memory.UserRoleRepository
	mu    sync.Mutex
	calls int
}

func (c *countingUserRoles) RolesOfUser(ctx context.Context, userID string) ([]*entity.Role, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.UserRoleRepository.RolesOfUser(ctx, userID)
}

func (c *countingUserRoles) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fixture struct {
	store     *memory.Store
	userRoles *countingUserRoles
	events    *recordingPublisher
	authz     *application.AuthzService
	roles     *application.RoleService
	adminRole *entity.Role
	userRole  *entity.Role
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	logger := helpers.NewDiscardLogger()
	events := &recordingPublisher{}
	ur := &countingUserRoles{UserRoleRepository: store.UserRoles()}

	f := &fixture{
		store:     store,
		userRoles: ur,
		events:    events,
		authz:     application.NewAuthzService(store.Users(), store.Roles(), ur, events, logger),
		roles:     application.NewRoleService(store.Roles(), events, logger),
	}
	seeded, err := f.roles.SeedDefaultRoles(context.Background())
	require.NoError(t, err)
	for _, r := range seeded {
		switch r.Name {
		case entity.RoleAdmin:
			f.adminRole = r
		case entity.RoleUser:
			f.userRole = r
		}
	}
	require.NotNil(t, f.adminRole)
	require.NotNil(t, f.userRole)
	return f
}

// addUser stores an ACTIVE user directly, bypassing hashing.
func (f *fixture) addUser(t *testing.T, email string) *entity.User {
	t.Helper()
	u := &entity.User{Email: email, Name: email, Password: "x", Status: entity.UserStatusActive}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f *fixture) grant(t *testing.T, userID string, role *entity.Role) {
	t.Helper()
	require.NoError(t, f.authz.AssignRole(context.Background(), userID, role.ID))
}
