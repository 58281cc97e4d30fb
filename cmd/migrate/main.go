package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"docflow/internal/config"
)

func usage() {
	fmt.Println("Usage: migrate [up|down|steps N|version]")
	fmt.Println("Applies the docflow schema migrations from db/migrations")
	fmt.Println("against the database configured via DOCFLOW_DB_* variables.")
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("migrate: failed to load config: %v", err)
	}

	m, err := migrate.New("file://db/migrations", cfg.DB.DSN())
	if err != nil {
		log.Fatalf("migrate: failed to open %q: %v", cfg.DB.Name, err)
	}
	defer m.Close()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "up":
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("migrate: up failed: %v", err)
		}
		log.Println("migrate: docflow schema is up to date")

	case "down":
		if err := m.Down(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("migrate: down failed: %v", err)
		}
		log.Println("migrate: docflow schema reverted")

	case "steps":
		if len(os.Args) < 3 {
			log.Fatal("steps requires a number argument")
		}
		n, err := strconv.Atoi(os.Args[2])
		if err != nil {
			log.Fatalf("invalid steps argument: %v", err)
		}
		if err := m.Steps(n); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("migrate: steps failed: %v", err)
		}
		log.Printf("migrate: applied %d steps", n)

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatalf("migrate: failed to get version: %v", err)
		}
		fmt.Printf("version: %d, dirty: %v\n", version, dirty)

	default:
		fmt.Printf("unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}
