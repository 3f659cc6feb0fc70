package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/getsentry/sentry-go"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"nuclight.org/redirect-tg-bot/app/redirector"
	e "nuclight.org/redirect-tg-bot/pkg/entities"
	"nuclight.org/redirect-tg-bot/pkg/logger"
)

type RedirectionService interface {
	Register(ctx context.Context, sender string) error
	AddRedirection(ctx context.Context, sender, source, destination string) error
	List(ctx context.Context, sender string) ([]e.Redirection, error)
}

type Client struct {
	Log        logger.Logger
	APIToken   string
	WorkersNum int
	Service    RedirectionService

	bot *tgbotapi.BotAPI
	wg  sync.WaitGroup
}

func (c *Client) Start(ctx context.Context) (err error) {
	if c.WorkersNum == 0 {
		return fmt.Errorf("workers number must be greater than 0")
	}

	log := c.Log

	c.bot, err = tgbotapi.NewBotAPI(c.APIToken)
	if err != nil {
		return fmt.Errorf("creating bot api: %w", err)
	}

	log.Info("bot api created", "username", c.bot.Self.UserName)

	updatesConf := tgbotapi.NewUpdate(0)
	updatesConf.Timeout = 60

	updatesChan := c.bot.GetUpdatesChan(updatesConf)

	for i := 0; i < c.WorkersNum; i++ {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.handleUpdatesFromChan(ctx, updatesChan)
		}()
	}

	return nil
}

func (c *Client) Wait() {
	c.wg.Wait()
}

func (c *Client) handleUpdatesFromChan(ctx context.Context, updatesChan tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-updatesChan:
			err := c.handleUpdate(ctx, update)
			if err != nil {
				c.Log.Error("handling update", "tg_update_id", update.UpdateID, "error", err)
			}
		}
	}
}

func (c *Client) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	log := c.Log.With("tg_update_id", update.UpdateID)

	defer func() {
		if err := recover(); err != nil {
			log.Error("panic", "error", err)
			sentry.CurrentHub().Recover(err)
		}
	}()

	if update.Message == nil {
		log.Warn("message is nil")
		return nil
	}

	if update.Message.From == nil {
		log.Warn("message from is nil")
		return nil
	}

	if update.Message.Chat == nil {
		log.Warn("message chat is nil")
		return nil
	}

	if !update.Message.Chat.IsPrivate() {
		// Redirections are managed in a private dialog with the bot only.
		return nil
	}

	sender := takeUserID(update.Message.From)

	log.Info(
		"new message",
		"tg_message_id", update.Message.MessageID,
		"tg_user_id", update.Message.From.ID,
		"tg_user_nick", update.Message.From.UserName,
		"text", update.Message.Text,
	)

	if !update.Message.IsCommand() {
		return c.reply(update, helpText)
	}

	switch update.Message.Command() {
	case "start":
		return c.handleStart(ctx, update, sender)
	case "add":
		return c.handleAdd(ctx, update, sender)
	case "list":
		return c.handleList(ctx, update, sender)
	default:
		return c.reply(update, helpText)
	}
}

func (c *Client) handleStart(ctx context.Context, update tgbotapi.Update, sender string) error {
	err := c.Service.Register(ctx, sender)
	if err != nil {
		return fmt.Errorf("registering user: %w", err)
	}

	return c.reply(update, "You are registered. "+helpText)
}

func (c *Client) handleAdd(ctx context.Context, update tgbotapi.Update, sender string) error {
	args := strings.Fields(update.Message.CommandArguments())
	if len(args) != 2 {
		return c.reply(update, "Usage: /add <source> <destination>")
	}

	err := c.Service.AddRedirection(ctx, sender, args[0], args[1])
	if err != nil {
		c.Log.Warn("adding redirection", "tg_user_id", sender, "error", err)
		return c.reply(update, redirector.UserMessage(err))
	}

	return c.reply(update, fmt.Sprintf("Redirection %s → %s created", args[0], args[1]))
}

func (c *Client) handleList(ctx context.Context, update tgbotapi.Update, sender string) error {
	reds, err := c.Service.List(ctx, sender)
	if err != nil {
		c.Log.Warn("listing redirections", "tg_user_id", sender, "error", err)
		return c.reply(update, redirector.UserMessage(err))
	}

	if len(reds) == 0 {
		return c.reply(update, "You have no redirections yet")
	}

	var sb strings.Builder
	for _, red := range reds {
		fmt.Fprintf(&sb, "#%d: %s → %s\n", red.ID, red.SourceTitle, red.DestinationTitle)
	}

	return c.reply(update, sb.String())
}

func (c *Client) reply(update tgbotapi.Update, text string) error {
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, text)
	msg.DisableWebPagePreview = true

	_, err := c.bot.Send(msg)
	return err
}

const helpText = "I forward messages between your channels and groups.\n" +
	"/start — register\n" +
	"/add <source> <destination> — create a redirection\n" +
	"/list — show your redirections"

func takeUserID(user *tgbotapi.User) string {
	return strconv.FormatInt(user.ID, 10)
}
