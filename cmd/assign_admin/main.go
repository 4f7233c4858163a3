package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/oksasatya/rbac-admin-panel/config"
	"github.com/oksasatya/rbac-admin-panel/internal/container"
	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
	repo "github.com/oksasatya/rbac-admin-panel/internal/domain/repository"
	pginfra "github.com/oksasatya/rbac-admin-panel/internal/infrastructure/postgres"
	"github.com/oksasatya/rbac-admin-panel/internal/router"
	"github.com/oksasatya/rbac-admin-panel/pkg/helpers"
)

// assign_admin grants the admin role to the account with the given email.
//
//	go run ./cmd/assign_admin user@example.com
func main() {
	if len(os.Args) < 2 || strings.TrimSpace(os.Args[1]) == "" {
		fmt.Fprintln(os.Stderr, "usage: assign_admin <email>")
		os.Exit(1)
	}
	email := strings.ToLower(strings.TrimSpace(os.Args[1]))

	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-assign-admin", cfg.Env, cfg.LogLevel)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.CLIPoolOptions(cfg.DBMaxConnLife))
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)

	repos := router.BuildRepositories()
	svc := router.BuildServices(repos)

	u, err := repos.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			fail("user %s does not exist", email)
		}
		fail("lookup user: %v", err)
	}
	admin, err := repos.Roles.GetByName(ctx, entity.RoleAdmin)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			fail("admin role does not exist; run the seed command first")
		}
		fail("lookup admin role: %v", err)
	}

	held, err := svc.Authz.HasRole(ctx, u.ID, entity.RoleAdmin)
	if err != nil {
		fail("check roles: %v", err)
	}
	if held {
		fmt.Printf("user %s is already an admin\n", email)
		return
	}
	if err := svc.Authz.AssignRole(ctx, u.ID, admin.ID); err != nil {
		fail("assign role: %v", err)
	}
	fmt.Printf("granted admin role to %s\n", email)
}

// fail prints to stderr and exits 1; deferred cleanups are skipped.
func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
