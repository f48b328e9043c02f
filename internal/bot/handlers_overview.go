package bot

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/spendify/spendify-bot/internal/api"
	"github.com/spendify/spendify-bot/internal/logger"
	"github.com/spendify/spendify-bot/internal/models"
	"github.com/spendify/spendify-bot/internal/overview"
	"github.com/spendify/spendify-bot/internal/spending"
)

// overviewFetchSize is the page size for the 12-month window fetch.
const overviewFetchSize = 1000

// handleOverview handles the /overview command.
func (b *Bot) handleOverview(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleOverviewCore(ctx, tgBot, update)
}

// handleOverviewCore is the testable implementation of handleOverview. It
// fetches the 12-month window and the current month total in parallel, then
// sends a text summary plus trend and category charts.
func (b *Bot) handleOverviewCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	token, err := b.token(chatID)
	if err != nil {
		b.redirectToLogin(ctx, tg, chatID)
		return
	}

	now := b.nowFn()
	today := models.DateOf(now)
	windowStart := models.NewDate(today.Year, today.Month, 1).AddMonths(-(overview.SeriesMonths - 1))

	var (
		windowTxs  []models.Transaction
		monthSpent decimal.Decimal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		windowTxs, err = b.api.Transactions(gctx, token, api.TransactionQuery{
			StartDate: windowStart,
			EndDate:   today,
			Size:      overviewFetchSize,
			Sort:      api.SortDateDesc,
		})
		return err
	})
	g.Go(func() error {
		var err error
		monthSpent, err = spending.CurrentMonth(gctx, b.api, token, now)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to fetch overview data")
		b.sendText(ctx, tg, chatID, "❌ Couldn't load your overview right now. Please try again.")
		return
	}

	series := overview.MonthlySeries(windowTxs, today)
	summaries := overview.CategorySummaries(windowTxs)
	periodTotal := overview.PeriodTotal(series)

	var sb strings.Builder
	sb.WriteString("📊 <b>Overview</b>\n\n")
	sb.WriteString(fmt.Sprintf("💸 This month: <b>$%s</b>\n", monthSpent.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("🗓 Last 12 months: $%s\n", periodTotal.StringFixed(2)))

	if len(summaries) > 0 {
		sb.WriteString("\n<b>Top categories:</b>\n")
		top := summaries
		if len(top) > 5 {
			top = top[:5]
		}
		for _, summary := range top {
			sb.WriteString(fmt.Sprintf("• %s: $%s (%.1f%%)\n",
				escapeHTML(summary.CategoryName),
				summary.Total.StringFixed(2),
				summary.Percentage))
		}
	} else {
		sb.WriteString("\nNo records yet. Add one with /add.")
	}

	b.sendText(ctx, tg, chatID, sb.String())

	if len(windowTxs) == 0 {
		return
	}

	b.sendChart(ctx, tg, chatID, chartFilename("trend", now), func() ([]byte, error) {
		return GenerateTrendChart(series)
	})
	b.sendChart(ctx, tg, chatID, chartFilename("categories", now), func() ([]byte, error) {
		return GenerateCategoryChart(summaries)
	})
}

// sendChart renders one chart and sends it as a document.
func (b *Bot) sendChart(ctx context.Context, tg TelegramAPI, chatID int64, filename string, render func() ([]byte, error)) {
	data, err := render()
	if err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Str("filename", filename).
			Msg("Failed to generate chart")
		return
	}

	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:   chatID,
		Document: &tgmodels.InputFileUpload{Filename: filename, Data: bytes.NewReader(data)},
	})
	if err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Str("filename", filename).
			Msg("Failed to send chart document")
	}
}
