// Command migrate applies the engagement schema.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"engagement/internal/config"
	"engagement/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate/main.go <up|constraints|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Println("migrations applied")
	case "constraints":
		if err := database.EnsureConstraints(db); err != nil {
			return err
		}
		log.Println("constraints ensured")
	case "status":
		for _, m := range database.Models() {
			name := fmt.Sprintf("%T", m)
			if t, ok := m.(interface{ TableName() string }); ok {
				name = t.TableName()
			}
			log.Printf("%-10s present=%v", name, db.Migrator().HasTable(m))
		}
	default:
		return usage()
	}
	return nil
}
