package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"nuclight.org/redirect-tg-bot/app/storage"
	"nuclight.org/redirect-tg-bot/pkg/logger"
)

// The redirection insert and the quota increment are separate statements, so
// a crash between them leaves the quota counter behind the stored link
// count. This command reports every sender whose counter drifted.

var opts struct {
	DBPath string `long:"db-path" env:"DB_PATH" required:"true" description:"path to the sqlite database file"`
}

func main() {
	_, err := flags.Parse(&opts)
	if err != nil {
		os.Exit(1)
	}

	log := logger.NewLogger(false)
	log.Info("starting quota audit")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := storage.NewSQLite(ctx, opts.DBPath)
	if err != nil {
		log.Error("creating sqlite3 database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("closing sqlite3 database", "error", err)
		}
	}()

	users, err := db.ListUsers(ctx)
	if err != nil {
		log.Error("listing users", "error", err)
		os.Exit(1)
	}

	counts, err := db.CountRedirections(ctx)
	if err != nil {
		log.Error("counting redirections", "error", err)
		os.Exit(1)
	}

	drifted := 0
	for _, user := range users {
		count := counts[user.ID]
		if count == user.Quota {
			continue
		}

		drifted++
		log.Warn(
			"quota counter out of sync",
			"user", user.ID,
			"quota", user.Quota,
			"redirections", count,
		)
	}

	log.Info("audit finished", "users", len(users), "drifted", drifted)

	if drifted > 0 {
		os.Exit(1)
	}

	os.Exit(0)
}
