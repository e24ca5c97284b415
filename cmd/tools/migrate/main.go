package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/noah-isme/backend-kitshop/internal/db"
)

func main() {
	var (
		direction = flag.String("direction", "up", "migration direction: up or down")
		steps     = flag.Int("steps", 1, "number of migrations to roll back when direction=down")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	m, err := db.NewMigrator(dbURL)
	if err != nil {
		log.Fatalf("migrator: %v", err)
	}
	defer func() { _, _ = m.Close() }()

	switch *direction {
	case "up":
		err = db.Up(m)
	case "down":
		err = db.Down(m, *steps)
	default:
		log.Fatalf("unknown direction %q", *direction)
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", *direction, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		log.Printf("migrations applied; no version recorded: %v", err)
		return
	}
	log.Printf("schema at version %d (dirty=%t)", version, dirty)
}
