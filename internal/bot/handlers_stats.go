package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"golang.org/x/sync/errgroup"

	"github.com/spendify/spendify-bot/internal/api"
	"github.com/spendify/spendify-bot/internal/logger"
)

// maxDailyRows caps the daily breakdown in the /stats message.
const maxDailyRows = 14

// handleStats handles the /stats command.
func (b *Bot) handleStats(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleStatsCore(ctx, tgBot, update)
}

// handleStatsCore is the testable implementation of handleStats. It renders
// the backend's precomputed summary and daily breakdown.
func (b *Bot) handleStatsCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	token, err := b.token(chatID)
	if err != nil {
		b.redirectToLogin(ctx, tg, chatID)
		return
	}

	var (
		summary *api.AnalyticsSummary
		daily   []api.DailyTotal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = b.api.AnalyticsSummary(gctx, token)
		return err
	})
	g.Go(func() error {
		var err error
		daily, err = b.api.AnalyticsDaily(gctx, token)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to fetch analytics")
		b.sendText(ctx, tg, chatID, "❌ Couldn't load your stats right now. Please try again.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📈 <b>Stats</b>\n\n")
	sb.WriteString(fmt.Sprintf("💸 Total spending: <b>$%s</b>\n", summary.TotalSpending.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("🧾 Records: %d\n", summary.TransactionCount))
	if summary.TopCategory != "" {
		sb.WriteString(fmt.Sprintf("🏆 Top category: %s\n", escapeHTML(summary.TopCategory)))
	}

	if len(daily) > 0 {
		sb.WriteString("\n<b>Recent days:</b>\n")
		rows := daily
		if len(rows) > maxDailyRows {
			rows = rows[len(rows)-maxDailyRows:]
		}
		for _, day := range rows {
			sb.WriteString(fmt.Sprintf("• %s: $%s\n",
				day.Date.Time().Format("Jan 2"),
				day.Total.StringFixed(2)))
		}
	}

	_, err = tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      sb.String(),
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to send stats")
	}
}
