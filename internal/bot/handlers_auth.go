package bot

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/spendify/spendify-bot/internal/api"
	"github.com/spendify/spendify-bot/internal/logger"
)

const minPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// handleLogin handles the /login command.
func (b *Bot) handleLogin(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleLoginCore(ctx, tgBot, update)
}

// handleLoginCore is the testable implementation of handleLogin.
func (b *Bot) handleLoginCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	b.setPendingAuth(chatID, &pendingAuth{Mode: authModeLogin, Step: authStepEmail})

	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        "🔐 <b>Login</b>\n\nPlease enter your email address:",
		ParseMode:   tgmodels.ParseModeHTML,
		ReplyMarkup: authCancelKeyboard(),
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send login prompt")
	}
}

// handleRegister handles the /register command.
func (b *Bot) handleRegister(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleRegisterCore(ctx, tgBot, update)
}

// handleRegisterCore is the testable implementation of handleRegister.
func (b *Bot) handleRegisterCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	b.setPendingAuth(chatID, &pendingAuth{Mode: authModeRegister, Step: authStepEmail})

	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        "📝 <b>Create Account</b>\n\nPlease enter your email address:",
		ParseMode:   tgmodels.ParseModeHTML,
		ReplyMarkup: authCancelKeyboard(),
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send register prompt")
	}
}

func authCancelKeyboard() *tgmodels.InlineKeyboardMarkup {
	return &tgmodels.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
			{{Text: "❌ Cancel", CallbackData: "auth_cancel"}},
		},
	}
}

// handlePendingAuth consumes a text message belonging to an open login or
// registration conversation. Returns false when no conversation is open.
func (b *Bot) handlePendingAuth(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) bool {
	chatID := update.Message.Chat.ID

	pending, ok := b.getPendingAuth(chatID)
	if !ok {
		return false
	}

	input := strings.TrimSpace(update.Message.Text)

	switch pending.Step {
	case authStepEmail:
		if !emailPattern.MatchString(input) {
			b.sendText(ctx, tg, chatID, "❌ That doesn't look like a valid email address. Please try again:")
			return true
		}
		pending.Email = input
		pending.Step = authStepPassword
		b.setPendingAuth(chatID, pending)
		b.sendText(ctx, tg, chatID, "🔑 Please enter your password:")

	case authStepPassword:
		if len(input) < minPasswordLength {
			b.sendText(ctx, tg, chatID, "❌ Password must be at least 8 characters. Please try again:")
			return true
		}
		pending.Password = input
		if pending.Mode == authModeRegister {
			pending.Step = authStepConfirmPassword
			b.setPendingAuth(chatID, pending)
			b.sendText(ctx, tg, chatID, "🔑 Please confirm your password:")
			return true
		}
		b.clearPendingAuth(chatID)
		b.completeLogin(ctx, tg, chatID, pending.Email, pending.Password)

	case authStepConfirmPassword:
		if input != pending.Password {
			pending.Password = ""
			pending.Step = authStepPassword
			b.setPendingAuth(chatID, pending)
			b.sendText(ctx, tg, chatID, "❌ Passwords do not match. Please enter your password again:")
			return true
		}
		b.clearPendingAuth(chatID)
		b.completeRegister(ctx, tg, chatID, pending.Email, pending.Password)
	}

	return true
}

// completeLogin exchanges credentials for tokens and stores the session.
func (b *Bot) completeLogin(ctx context.Context, tg TelegramAPI, chatID int64, email, password string) {
	tokens, err := b.api.Login(ctx, email, password)
	if err != nil {
		logger.Log.Warn().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Str("email", logger.RedactEmail(email)).
			Msg("Login failed")

		var apiErr *api.APIError
		msg := "❌ Login failed. Please check your credentials and try again with /login."
		if errors.As(err, &apiErr) {
			msg = "❌ " + apiErr.UserMessage("Login failed. Please check your credentials and try again with /login.")
		}
		b.sendText(ctx, tg, chatID, msg)
		return
	}

	user, err := b.api.Me(ctx, tokens.Token)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to fetch profile after login")
	}

	if err := b.sessions.SignIn(chatID, tokens.Token, tokens.RefreshToken, user); err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to persist session")
		b.sendText(ctx, tg, chatID, "❌ Something went wrong saving your session. Please try /login again.")
		return
	}

	logger.Log.Info().
		Str("chat_hash", logger.HashChatID(chatID)).
		Str("email", logger.RedactEmail(email)).
		Msg("User signed in")

	name := ""
	if user != nil {
		name = ", " + escapeHTML(user.DisplayName())
	}
	b.sendText(ctx, tg, chatID, "✅ Welcome back"+name+"!")
	b.showHomeCore(ctx, tg, chatID)
}

// completeRegister creates the account, then signs the chat in.
func (b *Bot) completeRegister(ctx context.Context, tg TelegramAPI, chatID int64, email, password string) {
	tokens, err := b.api.Register(ctx, email, password)
	if err != nil {
		logger.Log.Warn().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Str("email", logger.RedactEmail(email)).
			Msg("Registration failed")

		msg := "❌ Registration failed. Please try again with /register."
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			if apiErr.StatusCode == 409 {
				msg = "❌ Email already exists. Please use a different email or login."
			} else {
				msg = "❌ " + apiErr.UserMessage("Registration failed. Please try again with /register.")
			}
		}
		b.sendText(ctx, tg, chatID, msg)
		return
	}

	user, err := b.api.Me(ctx, tokens.Token)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to fetch profile after registration")
	}

	if err := b.sessions.SignUp(chatID, tokens.Token, tokens.RefreshToken, user); err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to persist session")
		b.sendText(ctx, tg, chatID, "❌ Something went wrong saving your session. Please try /login.")
		return
	}

	logger.Log.Info().
		Str("chat_hash", logger.HashChatID(chatID)).
		Str("email", logger.RedactEmail(email)).
		Msg("User registered")

	b.sendText(ctx, tg, chatID, "🎉 Account created! You're now signed in.")
	b.showHomeCore(ctx, tg, chatID)
}

// handleLogout handles the /logout command.
func (b *Bot) handleLogout(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleLogoutCore(ctx, tgBot, update)
}

// handleLogoutCore is the testable implementation of handleLogout.
func (b *Bot) handleLogoutCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	if err := b.sessions.SignOut(chatID); err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to sign out")
	}
	b.clearChatState(chatID)

	logger.Log.Info().Str("chat_hash", logger.HashChatID(chatID)).Msg("User signed out")

	b.sendText(ctx, tg, chatID, "👋 You've been signed out.\n\nUse /login to sign back in.")
}

// handleAuthCallback handles auth flow button presses.
func (b *Bot) handleAuthCallback(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleAuthCallbackCore(ctx, tgBot, update)
}

// handleAuthCallbackCore is the testable implementation of handleAuthCallback.
func (b *Bot) handleAuthCallbackCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.CallbackQuery == nil {
		return
	}

	chatID := update.CallbackQuery.Message.Message.Chat.ID

	_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	})

	if update.CallbackQuery.Data == "auth_cancel" {
		b.clearPendingAuth(chatID)
		b.sendText(ctx, tg, chatID, "Cancelled. Use /login or /register when you're ready.")
	}
}
