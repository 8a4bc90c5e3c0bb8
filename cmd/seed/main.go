package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"boutique/internal/shared/config"
	"boutique/internal/shared/database"
	"boutique/internal/users"
	"boutique/pkg/logger"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()
	password := flag.String("password", cfg.Seed.DemoPassword, "password of every demo account")
	flag.Parse()

	// demo accounts always go to Postgres, whatever the server runs with
	cfg.Storage.Driver = config.DriverPostgres

	fmt.Println("Starting Boutique database seeder...")

	db, err := database.InitDB(cfg, logger.NewWithLevel(cfg.LogLevel))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := users.NewRepository(db.GetPostgreSQL())
	created, err := users.SeedDemoUsers(ctx, repo, *password, bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to seed demo users: %v", err)
	}

	total, err := repo.Count(ctx, "")
	if err != nil {
		log.Fatalf("Failed to count users: %v", err)
	}

	fmt.Printf("Created %d demo account(s), %d account(s) in total\n", created, total)
	for _, account := range users.DemoAccounts {
		fmt.Printf("  %-12s %s\n", account.Role, account.Email)
	}
}
