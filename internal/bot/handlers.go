package bot

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/spendify/spendify-bot/internal/logger"
)

// escapeHTML escapes user-provided text for Telegram HTML parse mode.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// sendText sends an HTML message, logging delivery failures.
func (b *Bot) sendText(ctx context.Context, tg TelegramAPI, chatID int64, text string) {
	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to send message")
	}
}

// handleStart handles the /start command.
func (b *Bot) handleStart(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleStartCore(ctx, tgBot, update)
}

// handleStartCore is the testable implementation of handleStart.
func (b *Bot) handleStartCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	if b.sessions.SignedIn(chatID) {
		b.showHomeCore(ctx, tg, chatID)
		return
	}

	firstName := ""
	if update.Message.From != nil && update.Message.From.FirstName != "" {
		firstName = ", " + escapeHTML(update.Message.From.FirstName)
	}

	text := `👋 Welcome` + firstName + `!

I'm <b>Spendify</b>, your personal expense tracker. I keep your spending, budgets and receipts in one place.

<b>Get started:</b>
• /login - sign in with your Spendify account
• /register - create a new account

Use /help to see everything I can do.`

	logger.Log.Debug().Str("chat_hash", logger.HashChatID(chatID)).Msg("Sending /start response")
	b.sendText(ctx, tg, chatID, text)
}

// handleHelp handles the /help command.
func (b *Bot) handleHelp(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleHelpCore(ctx, tgBot, update)
}

// handleHelpCore is the testable implementation of handleHelp.
func (b *Bot) handleHelpCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}

	text := `📚 <b>Available Commands</b>

<b>Tracking:</b>
• /add - record a new expense step by step
• Send a receipt photo to extract the expense automatically
• /history - browse, filter, edit and delete your records

<b>Insights:</b>
• /home - this month's spending against your budget
• /overview - 12-month trend and category breakdown charts
• /stats - spending summary from the analytics service

<b>Settings:</b>
• /budget - set your monthly budget ($500 to $5000)
• /menu - all sections at a glance

<b>Account:</b>
• /login, /register, /logout`

	b.sendText(ctx, tg, update.Message.Chat.ID, text)
}

// handleMenu handles the /menu command.
func (b *Bot) handleMenu(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleMenuCore(ctx, tgBot, update)
}

// handleMenuCore is the testable implementation of handleMenu.
func (b *Bot) handleMenuCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	name := "there"
	if sess, err := b.sessions.Get(chatID); err == nil && sess.User != nil {
		name = escapeHTML(sess.User.DisplayName())
	}

	text := `📂 <b>Menu</b>

Hi ` + name + `! Where to?

🏠 /home - monthly spending and budget
📒 /history - your records
📊 /overview - trends and breakdowns
📈 /stats - analytics summary
➕ /add - record an expense
💰 /budget - monthly budget
🚪 /logout`

	b.sendText(ctx, tg, chatID, text)
}
