// seed inserts development accounts for local testing.
// Idempotent: skips inserts if the dev customer (dev@example.com) already exists.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"risk-adaptive-auth/internal/account/domain"
	accountrepo "risk-adaptive-auth/internal/account/repository"
	"risk-adaptive-auth/internal/config"
	"risk-adaptive-auth/internal/db"
	"risk-adaptive-auth/internal/portal"
	"risk-adaptive-auth/internal/security"
)

const (
	devPassword   = "password123"
	customerEmail = "dev@example.com"
)

func seedAccounts() []*domain.Account {
	return []*domain.Account{
		{
			ID:     "dev-account-001",
			Email:  customerEmail,
			Name:   "Dev Customer",
			Phone:  "+15550100",
			Status: domain.StatusActive,
			Roles:  []string{portal.RoleCustomer},
		},
		{
			ID:     "dev-account-002",
			Email:  "admin@example.com",
			Name:   "Dev Admin",
			Status: domain.StatusActive,
			Roles:  []string{portal.RoleAdmin},
		},
		{
			ID:     "dev-account-003",
			Email:  "root@example.com",
			Name:   "Dev Super Admin",
			Status: domain.StatusActive,
			Roles:  []string{portal.RoleSuperAdmin, portal.RoleCustomer},
		},
		{
			ID:     "dev-account-004",
			Email:  "inactive@example.com",
			Name:   "Inactive Customer",
			Status: domain.StatusInactive,
			Roles:  []string{portal.RoleCustomer},
		},
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	repo := accountrepo.NewPostgresRepository(conn)
	existing, err := repo.GetByEmail(ctx, customerEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Printf("Seed already applied (%s exists). Skipping.", customerEmail)
		os.Exit(0)
	}

	hash, err := security.NewHasher(cfg.BcryptCost).Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	for _, a := range seedAccounts() {
		a.PasswordHash = hash
		a.CreatedAt = now
		a.UpdatedAt = now
		if err := repo.Create(ctx, a); err != nil {
			log.Fatalf("create %s: %v", a.Email, err)
		}
		log.Printf("created %s (%s) roles=%v", a.Email, a.Status, a.Roles)
	}
	log.Printf("Seed complete. All accounts use password %q.", devPassword)
}
