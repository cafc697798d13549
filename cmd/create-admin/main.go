package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"eukexpress-backend/internal/config"
	"eukexpress-backend/internal/database"
	"eukexpress-backend/internal/db"
	"eukexpress-backend/internal/repositories"
	"eukexpress-backend/internal/services"
)

func main() {
	username := flag.String("username", "", "admin username")
	email := flag.String("email", "", "admin email")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password (defaults to $ADMIN_PASSWORD)")
	flag.Parse()

	fmt.Println("========================================")
	fmt.Println("   EukExpress - Create Admin")
	fmt.Println("========================================")

	if *username == "" {
		fmt.Print("Username: ")
		fmt.Scanln(username)
	}
	if *email == "" {
		fmt.Print("Email: ")
		fmt.Scanln(email)
	}
	if *password == "" {
		fmt.Print("Password: ")
		fmt.Scanln(password)
	}
	if *username == "" || *password == "" {
		log.Fatal("username and password are required")
	}

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := database.NewMigrator(pool, zap.NewNop()).RunMigrations(ctx); err != nil {
		log.Fatalf("Migrations failed: %v", err)
	}

	admin, err := services.CreateAdmin(ctx, repositories.NewAdminRepository(pool), *username, *email, *password)
	if err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}

	fmt.Println()
	fmt.Printf("Admin %q created (id %s)\n", admin.Username, admin.ID)
}
