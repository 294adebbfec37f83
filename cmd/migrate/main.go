package main

import (
	"fmt"
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/nutriexpert/api/internal/config"
	"github.com/nutriexpert/api/internal/dbmigrate"
)

// Applies schema migrations. Usage: go run ./cmd/migrate [up|status|down]
func main() {
	command, err := parseCommand(os.Args)
	if err != nil {
		log.Fatal(err)
	}

	cfg := config.Load()
	target, err := dbmigrate.ResolveTarget(cfg, false)
	if err != nil {
		log.Fatal(err)
	}
	if target.Warning != "" {
		log.Printf("WARN migrate: %s", target.Warning)
	}

	log.Printf("migrate: command=%s using=%s", command, target.Source)
	if err := dbmigrate.Run(command, target.URL, dbmigrate.DefaultMigrationsDir); err != nil {
		log.Fatal(err)
	}
	log.Printf("migrate: %s completed successfully", command)
}

func parseCommand(args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("usage: go run ./cmd/migrate [up|status|down]")
	}
	switch args[1] {
	case "up", "status", "down":
		return args[1], nil
	}
	return "", fmt.Errorf("unsupported command %q (allowed: up, status, down)", args[1])
}
