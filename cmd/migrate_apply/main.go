package main

import (
	"flag"
	"fmt"
	"os"

	"mineduel/internal/db"
	"mineduel/internal/logger"
)

func main() {
	down := flag.Int("down", 0, "roll back this many migrations instead of applying")
	status := flag.Bool("status", false, "print the applied version and exit")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}

	switch {
	case *status:
		version, dirty, err := db.MigrationVersion(dsn)
		if err != nil {
			logger.Fatal("read migration version", "error", err)
		}
		fmt.Printf("version %d dirty=%t\n", version, dirty)

	case *down > 0:
		if err := db.Rollback(dsn, *down); err != nil {
			logger.Fatal("rollback failed", "error", err)
		}
		fmt.Printf("rolled back %d migration(s)\n", *down)

	default:
		if err := db.Migrate(dsn); err != nil {
			logger.Fatal("migration failed", "error", err)
		}
		fmt.Println("migrations applied")
	}
}
