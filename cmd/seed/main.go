package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/oksasatya/rbac-admin-panel/config"
	"github.com/oksasatya/rbac-admin-panel/internal/application"
	"github.com/oksasatya/rbac-admin-panel/internal/container"
	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
	pginfra "github.com/oksasatya/rbac-admin-panel/internal/infrastructure/postgres"
	"github.com/oksasatya/rbac-admin-panel/internal/router"
	"github.com/oksasatya/rbac-admin-panel/pkg/helpers"
)

// seed ensures the built-in roles exist. When SEED_ADMIN_EMAIL and
// SEED_ADMIN_PASSWORD are set it also creates that account and makes it admin.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.CLIPoolOptions(cfg.DBMaxConnLife))
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)

	svc := router.BuildServices(router.BuildRepositories())
	roles, err := svc.Roles.SeedDefaultRoles(ctx)
	if err != nil {
		log.Fatalf("failed to seed roles: %v", err)
	}
	for _, r := range roles {
		fmt.Printf("role %s: id=%s permissions=%v\n", r.Name, r.ID, r.Permissions.Strings())
	}

	email, password := os.Getenv("SEED_ADMIN_EMAIL"), os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}
	var adminID string
	for _, r := range roles {
		if r.Name == entity.RoleAdmin {
			adminID = r.ID
		}
	}
	u, err := svc.Users.Create(ctx, application.CreateUserInput{Name: "Administrator", Email: email, Password: password, RoleID: adminID})
	switch {
	case err == nil:
		fmt.Printf("seeded admin user: id=%s email=%s\n", u.ID, u.Email)
	case errors.Is(err, application.ErrEmailTaken):
		fmt.Printf("user %s already exists; use assign_admin to grant the role\n", email)
	default:
		log.Fatalf("failed to seed admin user: %v", err)
	}
}
