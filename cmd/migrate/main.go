package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"gemini-pool-go/internal/migrations"
	store "gemini-pool-go/internal/storage"
	log "github.com/sirupsen/logrus"
)

func main() {
	driver := flag.String("driver", migrations.DialectPostgres, "database driver: postgres or sqlite")
	dsn := flag.String("dsn", "", "database connection string (sqlite: file path)")
	action := flag.String("action", "up", "migration action: up, down, or version")
	steps := flag.Int("steps", 1, "steps to migrate when action=down")
	flag.Parse()

	if *dsn == "" {
		fmt.Fprintln(os.Stderr, "missing required flag: -dsn")
		os.Exit(2)
	}

	db, err := store.OpenDB(context.Background(), *driver, *dsn)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()

	switch *action {
	case "up":
		if err := migrations.Up(db, *driver); err != nil {
			log.WithError(err).Fatal("migrate up")
		}
		log.Info("migrations applied")
	case "down":
		if err := migrations.Down(db, *driver, *steps); err != nil {
			log.WithError(err).Fatal("migrate down")
		}
		log.Infof("rolled back %d step(s)", *steps)
	case "version":
		version, dirty, err := migrations.Version(db, *driver)
		if err != nil {
			log.WithError(err).Fatal("read version")
		}
		state := "clean"
		if dirty {
			state = "dirty"
		}
		log.Infof("current version: %d (%s)", version, state)
	default:
		fmt.Fprintf(os.Stderr, "unknown action %q (expected up, down, version)\n", *action)
		os.Exit(2)
	}
}
