// Package telegram is a chat front end: allowed Telegram users import
// recipes by sending links and read their plan and grocery list.
package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"recipe-planner/internal/auth"
	"recipe-planner/internal/grocery"
	"recipe-planner/internal/mealplan"
	"recipe-planner/internal/metrics"
	"recipe-planner/internal/recipe"
)

const (
	// SecretHeader carries the secret_token registered with setWebhook.
	SecretHeader   = "X-Telegram-Bot-Api-Secret-Token"
	userPrefix     = "telegram:"
	messageTimeout = 2 * time.Minute
	usageDays      = 7
)

// Sender is the part of the Telegram API the bot talks to.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type URLImporter interface {
	ImportURL(ctx context.Context, userID, url string) (*recipe.Recipe, error)
}

type Plans interface {
	Current(ctx context.Context, userID string, day time.Time) (*mealplan.Plan, error)
}

type GroceryLists interface {
	Latest(ctx context.Context, userID string) (*grocery.List, error)
}

type Usage interface {
	DailyUsage(ctx context.Context, days int) ([]metrics.DailyUsage, error)
}

// Deps are the services the bot answers from.
type Deps struct {
	Users    auth.UserStore
	Importer URLImporter
	Plans    Plans
	Grocery  GroceryLists
	Usage    Usage
	// IsAdmin decides who may run /usage, by local user id.
	IsAdmin   func(userID string) bool
	DataPaths []string
}

type Bot struct {
	api     Sender
	secret  string
	deps    Deps
	allowed map[int64]bool
	logger  *zap.Logger
	now     func() time.Time

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewBot connects to Telegram and points its webhook at webhookURL. Telegram
// echoes secret in every webhook call.
func NewBot(token, webhookURL, secret string, allowedIDs []int64, deps Deps, logger *zap.Logger) (*Bot, error) {
	if secret == "" {
		return nil, errors.New("telegram webhook secret is required")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("telegram bot authorized", zap.String("account", api.Self.UserName))

	if webhookURL != "" {
		// WebhookConfig has no secret_token field.
		params := tgbotapi.Params{"url": webhookURL, "secret_token": secret}
		resp, err := api.MakeRequest("setWebhook", params)
		if err != nil {
			return nil, fmt.Errorf("failed to set webhook to %s: %w", webhookURL, err)
		}
		logger.Info("telegram webhook set", zap.String("description", resp.Description))
	}
	return newBot(api, secret, allowedIDs, deps, logger), nil
}

func newBot(api Sender, secret string, allowedIDs []int64, deps Deps, logger *zap.Logger) *Bot {
	allowed := make(map[int64]bool, len(allowedIDs))
	for _, id := range allowedIDs {
		allowed[id] = true
	}
	return &Bot{api: api, secret: secret, deps: deps, allowed: allowed, logger: logger, now: time.Now}
}

// UserID is the local user a Telegram account acts as.
func UserID(telegramID int64) string {
	return fmt.Sprintf("%s%d", userPrefix, telegramID)
}

// Webhook acknowledges an update right away and handles it in the
// background. Requests without the registered secret are rejected.
func (b *Bot) Webhook(c *gin.Context) {
	token := c.GetHeader(SecretHeader)
	if b.secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(b.secret)) != 1 {
		b.logger.Warn("telegram webhook call without a valid secret", zap.String("remote_addr", c.ClientIP()))
		c.Status(http.StatusUnauthorized)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(c.Request.Body).Decode(&update); err != nil {
		b.logger.Warn("invalid telegram update", zap.Error(err))
		c.Status(http.StatusBadRequest)
		return
	}
	if !b.track() {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	c.Status(http.StatusOK)

	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
		defer cancel()
		b.Handle(ctx, update)
	}()
}

// track registers an update with the WaitGroup unless Wait was called.
func (b *Bot) track() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.wg.Add(1)
	return true
}

// Wait stops accepting updates and blocks until in-flight ones are handled.
func (b *Bot) Wait() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
}

// Handle answers one update.
func (b *Bot) Handle(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if !b.allowed[msg.From.ID] {
		b.logger.Warn("unauthorized telegram user",
			zap.Int64("telegram_id", msg.From.ID),
			zap.String("username", msg.From.UserName))
		return
	}

	userID := UserID(msg.From.ID)
	name := strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
	if err := b.deps.Users.Ensure(ctx, userID, "", name); err != nil {
		b.logger.Error("failed to ensure telegram user", zap.String("user_id", userID), zap.Error(err))
		b.reply(msg.Chat.ID, "❌ Something went wrong, try again later.")
		return
	}

	text := strings.TrimSpace(msg.Text)
	switch {
	case strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://"):
		b.handleImport(ctx, msg.Chat.ID, userID, strings.Fields(text)[0])
	case msg.IsCommand() && msg.Command() == "plan":
		b.handlePlan(ctx, msg.Chat.ID, userID)
	case msg.IsCommand() && msg.Command() == "grocery":
		b.handleGrocery(ctx, msg.Chat.ID, userID)
	case msg.IsCommand() && msg.Command() == "usage":
		b.handleUsage(ctx, msg.Chat.ID, userID)
	default:
		b.reply(msg.Chat.ID, helpText)
	}
}

const helpText = "Send me a recipe link to save it.\n\n" +
	"/plan - this week's meal plan\n" +
	"/grocery - your latest grocery list\n" +
	"/usage - usage report (admins)"

func (b *Bot) handleImport(ctx context.Context, chatID int64, userID, url string) {
	b.reply(chatID, "✂️ *Clipping recipe...*")

	rec, err := b.deps.Importer.ImportURL(ctx, userID, url)
	if err != nil {
		b.logger.Info("telegram import failed", zap.String("user_id", userID), zap.String("url", url), zap.Error(err))
		b.reply(chatID, "❌ *Could not import:* "+escape(err.Error()))
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ *Recipe saved!*\n\n*%s*\n%d ingredients, serves %d",
		escape(rec.Title), len(rec.Ingredients), rec.Servings))
}

func (b *Bot) handlePlan(ctx context.Context, chatID int64, userID string) {
	plan, err := b.deps.Plans.Current(ctx, userID, b.now())
	if err != nil {
		if mealplan.MapHTTPStatus(err) == http.StatusNotFound {
			b.reply(chatID, "🗓️ No meal plan covers this week yet.")
			return
		}
		b.logger.Error("failed to load meal plan", zap.String("user_id", userID), zap.Error(err))
		b.reply(chatID, "❌ Error loading your meal plan.")
		return
	}
	b.reply(chatID, formatWeek(plan, b.now()))
}

func (b *Bot) handleGrocery(ctx context.Context, chatID int64, userID string) {
	list, err := b.deps.Grocery.Latest(ctx, userID)
	if err != nil {
		if grocery.MapHTTPStatus(err) == http.StatusNotFound {
			b.reply(chatID, "🛒 You have no grocery list yet.")
			return
		}
		b.logger.Error("failed to load grocery list", zap.String("user_id", userID), zap.Error(err))
		b.reply(chatID, "❌ Error loading your grocery list.")
		return
	}
	b.reply(chatID, formatGrocery(list))
}

func (b *Bot) handleUsage(ctx context.Context, chatID int64, userID string) {
	if b.deps.IsAdmin == nil || !b.deps.IsAdmin(userID) {
		b.reply(chatID, "⛔ *Access Denied*: Admin only.")
		return
	}
	usage, err := b.deps.Usage.DailyUsage(ctx, usageDays)
	if err != nil {
		b.logger.Error("failed to load usage", zap.Error(err))
		b.reply(chatID, "❌ Error fetching metrics.")
		return
	}
	b.reply(chatID, formatUsage(usage, metrics.GetSysHealth(b.deps.DataPaths...)))
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("failed to send telegram message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}
