// Seed inserts development users: one admin, one professional, one client.
// Idempotent: existing emails are left untouched.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"servicos-ja/backend/internal/config"
	"servicos-ja/backend/internal/db"
	"servicos-ja/backend/internal/security"
	userdomain "servicos-ja/backend/internal/user/domain"
)

type seedUser struct {
	email    string
	password string
	name     string
	role     userdomain.Role
}

var seedUsers = []seedUser{
	{"admin@servicosja.local", "admin-dev-password", "Admin", userdomain.RoleAdmin},
	{"pro@servicosja.local", "pro-dev-password", "Paulo Profissional", userdomain.RoleProfessional},
	{"cliente@servicosja.local", "cliente-dev-password", "Ana Cliente", userdomain.RoleClient},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	hasher := security.NewHasher(cfg.BcryptCost)
	ctx := context.Background()

	for _, su := range seedUsers {
		created, err := insertUser(ctx, database, hasher, su)
		if err != nil {
			log.Fatalf("seed %s: %v", su.email, err)
		}
		if created {
			fmt.Printf("created %-12s %s (password: %s)\n", su.role, su.email, su.password)
		} else {
			fmt.Printf("exists  %-12s %s\n", su.role, su.email)
		}
	}
}

func insertUser(ctx context.Context, database *sql.DB, hasher *security.Hasher, su seedUser) (bool, error) {
	hash, err := hasher.Hash([]byte(su.password))
	if err != nil {
		return false, err
	}
	now := time.Now().UTC()
	res, err := database.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $6)
		ON CONFLICT (email) DO NOTHING`,
		uuid.New().String(), su.email, hash, su.name, string(su.role), now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
