// Package bot provides the Telegram bot initialization and handlers. Each
// handler plays the role of one screen of the mobile client: home, history,
// overview, record input, receipt upload, budget alarm and the auth forms.
package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/spendify/spendify-bot/internal/api"
	"github.com/spendify/spendify-bot/internal/config"
	"github.com/spendify/spendify-bot/internal/history"
	"github.com/spendify/spendify-bot/internal/localstore"
	"github.com/spendify/spendify-bot/internal/logger"
	"github.com/spendify/spendify-bot/internal/models"
	"github.com/spendify/spendify-bot/internal/session"
)

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot *bot.Bot
	// messageSender is the API used outside of update handlers, such as the
	// budget alarm loop. It is the live bot in production and a mock in tests.
	messageSender TelegramAPI
	cfg           *config.Config
	api           *api.Client
	sessions      *session.Store
	local         *localstore.Store
	nowFn         func() time.Time

	pendingAuthMu sync.RWMutex
	pendingAuth   map[int64]*pendingAuth

	pendingRecordsMu sync.RWMutex
	pendingRecords   map[int64]*pendingRecord

	budgetEditorsMu sync.RWMutex
	budgetEditors   map[int64]*budgetEdit

	pendingDatesMu sync.RWMutex
	pendingDates   map[int64]string // chat -> which range bound is being edited

	historiesMu sync.Mutex
	histories   map[int64]*history.View
}

// New creates a new Bot instance.
func New(cfg *config.Config, apiClient *api.Client, sessions *session.Store, local *localstore.Store) (*Bot, error) {
	b := &Bot{
		cfg:            cfg,
		api:            apiClient,
		sessions:       sessions,
		local:          local,
		nowFn:          time.Now,
		pendingAuth:    make(map[int64]*pendingAuth),
		pendingRecords: make(map[int64]*pendingRecord),
		budgetEditors:  make(map[int64]*budgetEdit),
		pendingDates:   make(map[int64]string),
		histories:      make(map[int64]*history.View),
	}

	opts := []bot.Option{
		bot.WithMiddlewares(b.guardMiddleware),
		bot.WithDefaultHandler(b.defaultHandler),
	}

	telegramBot, err := bot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.messageSender = telegramBot
	b.registerHandlers()

	return b, nil
}

// Start begins polling for updates and runs the budget alarm loop until ctx
// is cancelled.
func (b *Bot) Start(ctx context.Context) {
	go b.startBudgetAlarmLoop(ctx)
	logger.Log.Info().Msg("Bot started polling")
	b.bot.Start(ctx)
}

// registerHandlers sets up command and callback handlers.
func (b *Bot) registerHandlers() {
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, b.handleStart)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, b.handleHelp)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/login", bot.MatchTypePrefix, b.handleLogin)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/register", bot.MatchTypePrefix, b.handleRegister)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/logout", bot.MatchTypePrefix, b.handleLogout)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/home", bot.MatchTypePrefix, b.handleHome)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/history", bot.MatchTypePrefix, b.handleHistory)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/overview", bot.MatchTypePrefix, b.handleOverview)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/add", bot.MatchTypePrefix, b.handleAdd)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/budget", bot.MatchTypePrefix, b.handleBudget)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/menu", bot.MatchTypePrefix, b.handleMenu)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/stats", bot.MatchTypePrefix, b.handleStats)

	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "hist_", bot.MatchTypePrefix, b.handleHistoryCallback)
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "rec_", bot.MatchTypePrefix, b.handleRecordCallback)
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "budget_", bot.MatchTypePrefix, b.handleBudgetCallback)
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "auth_", bot.MatchTypePrefix, b.handleAuthCallback)
}

// authCommands are the unauthenticated route group; everything else
// requires a session.
var authCommands = map[string]bool{
	"/start":    true,
	"/help":     true,
	"/login":    true,
	"/register": true,
}

// guardMiddleware is the route guard: unauthenticated chats are redirected
// to the login flow, signed-in chats are redirected away from it.
func (b *Bot) guardMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		if !b.guardCore(ctx, tgBot, update) {
			return
		}
		next(ctx, tgBot, update)
	}
}

// guardCore reports whether the update may proceed past the route guard,
// sending the redirect response when it may not.
func (b *Bot) guardCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) bool {
	chatID := extractChatID(update)
	if chatID == 0 {
		return false
	}

	logUserAction(chatID, update)

	command := extractCommand(update)
	signedIn := b.sessions.SignedIn(chatID)

	if !signedIn && command != "" && !authCommands[command] {
		b.redirectToLogin(ctx, tg, chatID)
		return false
	}

	// A pending auth conversation makes free text part of the login flow,
	// so it passes the guard even without a session.
	if !signedIn && command == "" && !b.hasPendingAuth(chatID) && update.CallbackQuery == nil {
		b.redirectToLogin(ctx, tg, chatID)
		return false
	}

	if signedIn && (command == "/login" || command == "/register") {
		b.showHomeCore(ctx, tg, chatID)
		return false
	}

	return true
}

func (b *Bot) redirectToLogin(ctx context.Context, tg TelegramAPI, chatID int64) {
	_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      "🔐 You need to sign in first.\n\nUse /login with your Spendify account, or /register to create one.",
		ParseMode: tgmodels.ParseModeHTML,
	})
}

// defaultHandler routes free text and photos: pending conversations first,
// then receipt photos, then a usage hint.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}

	if len(update.Message.Photo) > 0 {
		b.handlePhoto(ctx, tgBot, update)
		return
	}

	if update.Message.Text == "" {
		return
	}

	if b.handlePendingAuth(ctx, tgBot, update) {
		return
	}
	if b.handlePendingRecordInput(ctx, tgBot, update) {
		return
	}
	if b.handlePendingBudgetInput(ctx, tgBot, update) {
		return
	}
	if b.handlePendingDateInput(ctx, tgBot, update) {
		return
	}

	_, err := tgBot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      "I didn't understand that. Use /help to see available commands.",
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send default response")
	}
}

// token returns the chat's bearer token.
func (b *Bot) token(chatID int64) (string, error) {
	sess, err := b.sessions.Get(chatID)
	if err != nil {
		return "", err
	}
	return sess.AccessToken, nil
}

// historyView returns the chat's history screen state, creating it on first
// use. Each chat owns its own copy of fetched lists; nothing is shared.
func (b *Bot) historyView(chatID int64) *history.View {
	b.historiesMu.Lock()
	defer b.historiesMu.Unlock()

	v, ok := b.histories[chatID]
	if !ok {
		v = history.NewView(b.today())
		b.histories[chatID] = v
	}
	return v
}

func (b *Bot) dropHistoryView(chatID int64) {
	b.historiesMu.Lock()
	defer b.historiesMu.Unlock()
	delete(b.histories, chatID)
}

func (b *Bot) today() models.Date {
	return models.DateOf(b.nowFn())
}

// logUserAction logs the user's input/action.
func logUserAction(chatID int64, update *tgmodels.Update) {
	switch {
	case update.Message != nil:
		msg := update.Message
		event := logger.Log.Info().
			Str("chat_hash", logger.HashChatID(chatID))
		if msg.Text != "" {
			event = event.Str("text", msg.Text)
		}
		if len(msg.Photo) > 0 {
			event = event.Str("type", "photo")
		}
		event.Msg("User input")

	case update.CallbackQuery != nil:
		logger.Log.Info().
			Str("chat_hash", logger.HashChatID(chatID)).
			Str("data", update.CallbackQuery.Data).
			Msg("Callback query")
	}
}

// extractChatID gets the chat ID from various update types.
func extractChatID(update *tgmodels.Update) int64 {
	if update.Message != nil {
		return update.Message.Chat.ID
	}
	if update.CallbackQuery != nil && update.CallbackQuery.Message.Message != nil {
		return update.CallbackQuery.Message.Message.Chat.ID
	}
	return 0
}

// extractCommand returns the leading /command of a text message, or "".
func extractCommand(update *tgmodels.Update) string {
	if update.Message == nil || update.Message.Text == "" || update.Message.Text[0] != '/' {
		return ""
	}
	text := update.Message.Text
	for i := 0; i < len(text); i++ {
		if text[i] == ' ' || text[i] == '@' {
			return text[:i]
		}
	}
	return text
}
