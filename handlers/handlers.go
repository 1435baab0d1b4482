// Package handlers routes incoming Telegram updates: admin commands, photo
// submissions and media groups.
package handlers

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aziz-turgunoff/kitob-tg-bot/channel"
	"github.com/aziz-turgunoff/kitob-tg-bot/database"
	"github.com/aziz-turgunoff/kitob-tg-bot/ocr"
	"github.com/aziz-turgunoff/kitob-tg-bot/repost"
	"github.com/aziz-turgunoff/kitob-tg-bot/retry"
	"github.com/aziz-turgunoff/kitob-tg-bot/utils"
)

// mediaGroupSettle is how long to wait after the last photo of a media group
// before processing it; Telegram delivers group members as separate updates.
const mediaGroupSettle = time.Second

// Sender is the slice of the bot session the handlers use to reply to
// users.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Handler carries every dependency the update handlers need; nothing is
// reached through package state.
type Handler struct {
	bot        Sender
	store      *database.PostStore
	admins     *database.AdminStore
	auth       *utils.Auth
	gateway    *channel.Gateway
	reconciler *repost.Reconciler
	runner     *repost.Runner
	policy     retry.Policy
	extractor  ocr.Extractor
	groups     *mediaGroupBuffer

	timezone     *time.Location
	intervalDays int
	contact      string
}

// Config collects the handler dependencies.
type Config struct {
	Bot        Sender
	Store      *database.PostStore
	Admins     *database.AdminStore
	Auth       *utils.Auth
	Gateway    *channel.Gateway
	Reconciler *repost.Reconciler
	Runner     *repost.Runner
	Policy     retry.Policy
	Extractor  ocr.Extractor

	Timezone     *time.Location
	IntervalDays int
	Contact      string
}

// New builds the update handler.
func New(cfg Config) *Handler {
	extractor := cfg.Extractor
	if extractor == nil {
		extractor = ocr.Unconfigured{}
	}
	return &Handler{
		bot:          cfg.Bot,
		store:        cfg.Store,
		admins:       cfg.Admins,
		auth:         cfg.Auth,
		gateway:      cfg.Gateway,
		reconciler:   cfg.Reconciler,
		runner:       cfg.Runner,
		policy:       cfg.Policy,
		extractor:    extractor,
		groups:       newMediaGroupBuffer(mediaGroupSettle),
		timezone:     cfg.Timezone,
		intervalDays: cfg.IntervalDays,
		contact:      cfg.Contact,
	}
}

// commandPermissions maps each command to the level it requires.
var commandPermissions = map[string]string{
	"start":    "guest",
	"help":     "guest",
	"status":   "admin",
	"repost":   "admin",
	"addadmin": "admin",
}

// HandleUpdate dispatches one update. Channel posts and non-message updates
// are ignored; the bot only talks to users in private chats.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	m := update.Message
	if m == nil || m.From == nil || m.From.IsBot {
		return
	}

	if m.IsCommand() {
		h.dispatchCommand(ctx, m)
		return
	}

	if len(m.Photo) > 0 {
		h.handlePhoto(ctx, m)
	}
}

func (h *Handler) dispatchCommand(ctx context.Context, m *tgbotapi.Message) {
	name := m.Command()
	if level, ok := commandPermissions[name]; ok && level == "admin" {
		if !h.auth.IsAdmin(ctx, m.From.ID) {
			h.reply(m, "🚫 Sizda bu buyruq uchun ruxsat yo'q.")
			return
		}
	}

	switch name {
	case "start":
		h.handleStart(m)
	case "help":
		h.handleHelp(m)
	case "status":
		h.handleStatus(ctx, m)
	case "repost":
		h.handleRepost(ctx, m)
	case "addadmin":
		h.handleAddAdmin(ctx, m)
	default:
		h.reply(m, "Noma'lum buyruq. /help ni ko'ring.")
	}
}

// reply sends plain text back to the chat the message came from.
func (h *Handler) reply(m *tgbotapi.Message, text string) {
	msg := tgbotapi.NewMessage(m.Chat.ID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := h.bot.Send(msg); err != nil {
		utils.Warn("handlers", "reply", err.Error())
	}
}
