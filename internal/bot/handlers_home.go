package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"

	"github.com/spendify/spendify-bot/internal/logger"
	"github.com/spendify/spendify-bot/internal/spending"
)

const progressBarWidth = 10

// handleHome handles the /home command.
func (b *Bot) handleHome(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleHomeCore(ctx, tgBot, update)
}

// handleHomeCore is the testable implementation of handleHome.
func (b *Bot) handleHomeCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	b.showHomeCore(ctx, tg, update.Message.Chat.ID)
}

// showHomeCore renders the dashboard: current month spending against the
// monthly budget, with shortcuts to the other sections.
func (b *Bot) showHomeCore(ctx context.Context, tg TelegramAPI, chatID int64) {
	token, err := b.token(chatID)
	if err != nil {
		b.redirectToLogin(ctx, tg, chatID)
		return
	}

	now := b.nowFn()

	spent, err := spending.CurrentMonth(ctx, b.api, token, now)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to fetch monthly spending")
		b.sendText(ctx, tg, chatID, "❌ Couldn't load your spending right now. Please try again.")
		return
	}

	budgetAmount, err := b.local.Budget(ctx, chatID)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to read budget")
		b.sendText(ctx, tg, chatID, "❌ Couldn't load your budget right now. Please try again.")
		return
	}

	budget := decimal.NewFromInt(budgetAmount)
	remaining := budget.Sub(spent)

	percent := 0.0
	if budget.IsPositive() {
		percent = spent.Div(budget).InexactFloat64() * 100
	}

	var status string
	switch {
	case remaining.IsNegative():
		status = fmt.Sprintf("🚨 <b>Over budget by $%s!</b>", remaining.Neg().StringFixed(2))
	case percent >= 80:
		status = fmt.Sprintf("⚠️ Only $%s left this month.", remaining.StringFixed(2))
	default:
		status = fmt.Sprintf("✅ $%s left this month.", remaining.StringFixed(2))
	}

	text := fmt.Sprintf(`🏠 <b>%s</b>

💸 Spent: <b>$%s</b> of $%d
%s %.0f%%
%s

📒 /history  📊 /overview  ➕ /add  💰 /budget`,
		now.UTC().Format("January 2006"),
		spent.StringFixed(2),
		budgetAmount,
		renderProgressBar(percent),
		percent,
		status)

	_, err = tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to send home dashboard")
	}
}

// renderProgressBar draws a fixed-width bar, capped at full when spending
// exceeds the budget.
func renderProgressBar(percent float64) string {
	filled := int(percent / 100 * progressBarWidth)
	if filled > progressBarWidth {
		filled = progressBarWidth
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("▓", filled) + strings.Repeat("░", progressBarWidth-filled)
}
