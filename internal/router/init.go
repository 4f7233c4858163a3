package router

import (
	"github.com/oksasatya/rbac-admin-panel/internal/application"
	"github.com/oksasatya/rbac-admin-panel/internal/container"
	"github.com/oksasatya/rbac-admin-panel/internal/domain/repository"
	pginfra "github.com/oksasatya/rbac-admin-panel/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/rbac-admin-panel/internal/interface/http"
	"github.com/oksasatya/rbac-admin-panel/internal/router/modules"
)

type Repositories struct {
	Users     repository.UserRepository
	Roles     repository.RoleRepository
	UserRoles repository.UserRoleRepository
}

type Services struct {
	Authz *application.AuthzService
	Users *application.UserService
	Roles *application.RoleService
}

// BuildRepositories picks the in-memory store when one is registered, otherwise Postgres.
func BuildRepositories() Repositories {
	if s := container.GetMemoryStore(); s != nil {
		return Repositories{Users: s.Users(), Roles: s.Roles(), UserRoles: s.UserRoles()}
	}
	pool := container.GetPGPool()
	logger := container.GetLogger()
	return Repositories{
		Users:     pginfra.NewUserRepository(pool, logger),
		Roles:     pginfra.NewRoleRepository(pool, logger),
		UserRoles: pginfra.NewUserRoleRepository(pool, logger),
	}
}

func BuildServices(r Repositories) Services {
	logger := container.GetLogger()
	events := container.GetEvents()
	authz := application.NewAuthzService(r.Users, r.Roles, r.UserRoles, events, logger)
	users := application.NewUserService(
		r.Users,
		authz,
		container.GetJWT(),
		container.GetRedis(),
		logger,
		container.GetES(),
		esIndex(),
		events,
	)
	if cfg := container.GetConfig(); cfg != nil && cfg.SessionTTL > 0 {
		users.SessionTTL = cfg.SessionTTL
	}
	return Services{
		Authz: authz,
		Users: users,
		Roles: application.NewRoleService(r.Roles, events, logger),
	}
}

func esIndex() string {
	if cfg := container.GetConfig(); cfg != nil {
		return cfg.ESUsersIndex
	}
	return ""
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	svc := BuildServices(BuildRepositories())
	cfg := container.GetConfig()
	logger := container.GetLogger()

	cookieDomain, cookieSecure := "", false
	if cfg != nil {
		cookieDomain, cookieSecure = cfg.CookieDomain, cfg.CookieSecure
	}

	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(svc.Users, svc.Authz, logger, cookieDomain, cookieSecure), svc.Authz, container.GetJWT()))
	r.Add(modules.NewUserModule(handlers.NewUserHandler(svc.Users, svc.Authz, logger), svc.Authz, container.GetJWT()))
	r.Add(modules.NewRoleModule(handlers.NewRoleHandler(svc.Roles, logger), svc.Authz, container.GetJWT()))
	if cfg != nil && cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(svc.Authz, container.GetJWT()))
	}
}
