package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jessevdk/go-flags"
	"nuclight.org/redirect-tg-bot/app/redirector"
	"nuclight.org/redirect-tg-bot/app/storage"
	"nuclight.org/redirect-tg-bot/app/telegram"
	"nuclight.org/redirect-tg-bot/pkg/agent"
	"nuclight.org/redirect-tg-bot/pkg/logger"
)

var opts struct {
	TelegramAPIToken   string `long:"telegram-api-token" env:"TELEGRAM_API_TOKEN" required:"true" description:"telegram api token"`
	TelegramWorkersNum int    `long:"telegram-workers-num" env:"TELEGRAM_WORKERS_NUM" default:"5" description:"number of workers for telegram bot"`
	AgentURL           string `long:"agent-url" env:"AGENT_URL" default:"http://127.0.0.1:8484" description:"base url of the forwarding agent api"`
	DBPath             string `long:"db-path" env:"DB_PATH" default:"./db/redirect.sqlite" description:"path to the sqlite database file"`
	QuotaLimit         int    `long:"quota-limit" env:"QUOTA_LIMIT" default:"3" description:"redirections allowed for a non-premium user"`
	SentryDSN          string `long:"sentry-dsn" env:"SENTRY_DSN" description:"sentry dsn, panics are not reported when empty"`
	Debug              bool   `long:"debug" env:"DEBUG" description:"enable debug logging"`
}

var Revision = "dev"

func main() {
	_, err := flags.Parse(&opts)
	if err != nil {
		os.Exit(1)
	}

	log := logger.NewLogger(opts.Debug)
	log.Info("starting bot", "revision", Revision)

	if opts.SentryDSN != "" {
		err = sentry.Init(sentry.ClientOptions{
			Dsn:     opts.SentryDSN,
			Release: Revision,
		})
		if err != nil {
			log.Error("initializing sentry", "error", err)
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
	}

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

	svc := &redirector.Service{
		Log:        log,
		QuotaLimit: opts.QuotaLimit,
		Store:      db,
		Agent:      agent.NewClient(opts.AgentURL, http.DefaultClient),
	}

	bot := &telegram.Client{
		Log:        log,
		APIToken:   opts.TelegramAPIToken,
		WorkersNum: opts.TelegramWorkersNum,
		Service:    svc,
	}

	err = bot.Start(ctx)
	if err != nil {
		log.Error("starting bot", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	log.Info("stopping bot")

	bot.Wait()

	os.Exit(0)
}
