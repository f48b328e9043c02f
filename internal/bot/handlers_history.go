package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/spendify/spendify-bot/internal/api"
	"github.com/spendify/spendify-bot/internal/history"
	"github.com/spendify/spendify-bot/internal/logger"
	"github.com/spendify/spendify-bot/internal/models"
)

// maxHistoryRows caps how many transactions get their own button row.
const maxHistoryRows = 10

// handleHistory handles the /history command.
func (b *Bot) handleHistory(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleHistoryCore(ctx, tgBot, update)
}

// handleHistoryCore is the testable implementation of handleHistory.
func (b *Bot) handleHistoryCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	token, err := b.token(chatID)
	if err != nil {
		b.redirectToLogin(ctx, tg, chatID)
		return
	}

	view := b.historyView(chatID)
	if err := view.Load(ctx, b.api, token); err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to load transactions")
		b.sendText(ctx, tg, chatID, "❌ Couldn't load your records right now. Please try again.")
		return
	}

	text, keyboard := renderHistory(view)
	_, err = tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   tgmodels.ParseModeHTML,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to send history")
	}
}

// renderHistory builds the record list message and its keyboard: category
// chips, the date range row and one button per visible transaction.
func renderHistory(view *history.View) (string, *tgmodels.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString("📒 <b>Records</b>\n")
	sb.WriteString(fmt.Sprintf("📅 %s to %s\n", view.Range.Start, view.Range.End))

	if len(view.Filtered) == 0 {
		sb.WriteString("\nNo records in this range.")
	} else {
		sb.WriteString(fmt.Sprintf("\n%d record(s). Tap one for details.\n", len(view.Filtered)))
	}

	if view.ExpandedID != 0 {
		if tx, ok := view.Find(view.ExpandedID); ok {
			sb.WriteString("\n")
			sb.WriteString(formatTransactionDetail(tx))
		}
	}

	var rows [][]tgmodels.InlineKeyboardButton

	// Category chips, "All" first, then first-seen order.
	chips := []tgmodels.InlineKeyboardButton{{
		Text:         chipLabel("All", view.Selection.All()),
		CallbackData: fmt.Sprintf("hist_cat_%d", models.AllCategories),
	}}
	for _, cat := range view.Categories() {
		chips = append(chips, tgmodels.InlineKeyboardButton{
			Text:         chipLabel(cat.Name, view.Selection.Has(cat.ID)),
			CallbackData: fmt.Sprintf("hist_cat_%d", cat.ID),
		})
	}
	for start := 0; start < len(chips); start += 3 {
		end := start + 3
		if end > len(chips) {
			end = len(chips)
		}
		rows = append(rows, chips[start:end])
	}

	rows = append(rows, []tgmodels.InlineKeyboardButton{
		{Text: "📅 From: " + view.Range.Start.String(), CallbackData: "hist_start"},
		{Text: "To: " + view.Range.End.String(), CallbackData: "hist_end"},
	})

	shown := view.Filtered
	if len(shown) > maxHistoryRows {
		shown = shown[:maxHistoryRows]
	}
	for _, tx := range shown {
		label := fmt.Sprintf("%s · $%s · %s",
			tx.TransactionDate.Time().Format("Jan 2"),
			tx.Amount.StringFixed(2),
			transactionTitle(tx))
		rows = append(rows, []tgmodels.InlineKeyboardButton{
			{Text: label, CallbackData: fmt.Sprintf("hist_row_%d", tx.ID)},
		})
		if tx.ID == view.ExpandedID {
			rows = append(rows, []tgmodels.InlineKeyboardButton{
				{Text: "✏️ Edit", CallbackData: fmt.Sprintf("hist_edit_%d", tx.ID)},
				{Text: "🗑 Delete", CallbackData: fmt.Sprintf("hist_del_%d", tx.ID)},
			})
		}
	}
	if len(view.Filtered) > maxHistoryRows {
		sb.WriteString(fmt.Sprintf("\n<i>Showing the first %d of %d records. Narrow the date range or filter by category to see the rest.</i>", maxHistoryRows, len(view.Filtered)))
	}

	return sb.String(), &tgmodels.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func chipLabel(name string, selected bool) string {
	if selected {
		return "✓ " + name
	}
	return name
}

func transactionTitle(tx models.Transaction) string {
	if tx.Merchant != "" {
		return tx.Merchant
	}
	if tx.Description != "" {
		return tx.Description
	}
	return tx.CategoryName
}

func formatTransactionDetail(tx models.Transaction) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`💰 Amount: <b>$%s</b>
📅 Date: %s
📁 Category: %s`,
		tx.Amount.StringFixed(2),
		tx.TransactionDate.Time().Format("02 Jan 2006"),
		escapeHTML(tx.CategoryName)))
	if tx.Merchant != "" {
		sb.WriteString("\n🏪 Merchant: " + escapeHTML(tx.Merchant))
	}
	if tx.Description != "" {
		sb.WriteString("\n📝 Note: " + escapeHTML(tx.Description))
	}
	return sb.String()
}

// handleHistoryCallback handles record list button presses.
func (b *Bot) handleHistoryCallback(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleHistoryCallbackCore(ctx, tgBot, update)
}

// handleHistoryCallbackCore is the testable implementation of handleHistoryCallback.
func (b *Bot) handleHistoryCallbackCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.CallbackQuery == nil {
		return
	}

	chatID := update.CallbackQuery.Message.Message.Chat.ID
	messageID := update.CallbackQuery.Message.Message.ID
	data := update.CallbackQuery.Data

	_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	})

	view := b.historyView(chatID)

	switch {
	case strings.HasPrefix(data, "hist_cat_"):
		id, err := strconv.Atoi(strings.TrimPrefix(data, "hist_cat_"))
		if err != nil {
			return
		}
		view.ToggleCategory(id)
		b.refreshHistory(ctx, tg, chatID, messageID, view)

	case strings.HasPrefix(data, "hist_row_"):
		id, err := strconv.Atoi(strings.TrimPrefix(data, "hist_row_"))
		if err != nil {
			return
		}
		view.ToggleExpanded(id)
		b.refreshHistory(ctx, tg, chatID, messageID, view)

	case strings.HasPrefix(data, "hist_del_"):
		id, err := strconv.Atoi(strings.TrimPrefix(data, "hist_del_"))
		if err != nil {
			return
		}
		b.promptDeleteConfirm(ctx, tg, chatID, messageID, view, id)

	case strings.HasPrefix(data, "hist_delc_"):
		id, err := strconv.Atoi(strings.TrimPrefix(data, "hist_delc_"))
		if err != nil {
			return
		}
		b.deleteTransaction(ctx, tg, chatID, messageID, view, id)

	case strings.HasPrefix(data, "hist_edit_"):
		id, err := strconv.Atoi(strings.TrimPrefix(data, "hist_edit_"))
		if err != nil {
			return
		}
		b.startRecordEdit(ctx, tg, chatID, view, id)

	case data == "hist_start":
		b.setPendingDate(chatID, "start")
		b.sendText(ctx, tg, chatID, "📅 Enter the new <b>start</b> date as <code>yyyy-MM-dd</code>:")

	case data == "hist_end":
		b.setPendingDate(chatID, "end")
		b.sendText(ctx, tg, chatID, "📅 Enter the new <b>end</b> date as <code>yyyy-MM-dd</code>:")

	case data == "hist_back":
		b.refreshHistory(ctx, tg, chatID, messageID, view)
	}
}

// refreshHistory re-renders the record list in place.
func (b *Bot) refreshHistory(ctx context.Context, tg TelegramAPI, chatID int64, messageID int, view *history.View) {
	text, keyboard := renderHistory(view)
	_, err := tg.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   tgmodels.ParseModeHTML,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to refresh history")
	}
}

// promptDeleteConfirm replaces the list with a per-record confirm dialog.
func (b *Bot) promptDeleteConfirm(ctx context.Context, tg TelegramAPI, chatID int64, messageID int, view *history.View, id int) {
	tx, ok := view.Find(id)
	if !ok {
		b.refreshHistory(ctx, tg, chatID, messageID, view)
		return
	}

	text := fmt.Sprintf(`🗑 <b>Delete this record?</b>

%s

This cannot be undone.`, formatTransactionDetail(tx))

	keyboard := &tgmodels.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
			{
				{Text: "🗑 Yes, delete", CallbackData: fmt.Sprintf("hist_delc_%d", id)},
				{Text: "⬅️ Back", CallbackData: "hist_back"},
			},
		},
	}

	_, err := tg.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   tgmodels.ParseModeHTML,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to show delete confirmation")
	}
}

// deleteTransaction removes the record on the backend, then from the view.
func (b *Bot) deleteTransaction(ctx context.Context, tg TelegramAPI, chatID int64, messageID int, view *history.View, id int) {
	token, err := b.token(chatID)
	if err != nil {
		b.redirectToLogin(ctx, tg, chatID)
		return
	}

	if err := b.api.DeleteTransaction(ctx, token, id); err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Int("transaction_id", id).
			Msg("Failed to delete transaction")
		b.sendText(ctx, tg, chatID, "❌ Failed to delete the record. Please try again.")
		b.refreshHistory(ctx, tg, chatID, messageID, view)
		return
	}

	view.Remove(id)

	logger.Log.Info().
		Str("chat_hash", logger.HashChatID(chatID)).
		Int("transaction_id", id).
		Msg("Transaction deleted")

	b.refreshHistory(ctx, tg, chatID, messageID, view)
}

// startRecordEdit opens the shared record draft flow prefilled from an
// existing transaction. Saving sends a full update, not a partial patch.
func (b *Bot) startRecordEdit(ctx context.Context, tg TelegramAPI, chatID int64, view *history.View, id int) {
	tx, ok := view.Find(id)
	if !ok {
		b.sendText(ctx, tg, chatID, "❌ Record not found. It may have been deleted.")
		return
	}

	pending := &pendingRecord{
		Step: recordStepPreview,
		Draft: api.TransactionInput{
			Amount:          tx.Amount,
			TransactionDate: tx.TransactionDate,
			Description:     tx.Description,
			CategoryID:      tx.CategoryID,
			Merchant:        tx.Merchant,
		},
		CategoryName: tx.CategoryName,
		EditingID:    tx.ID,
	}
	b.setPendingRecord(chatID, pending)
	b.showRecordPreview(ctx, tg, chatID, pending)
}

// handlePendingDateInput consumes a typed date for an open range edit.
// Returns false when no range edit is pending.
func (b *Bot) handlePendingDateInput(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) bool {
	chatID := update.Message.Chat.ID

	bound, ok := b.pendingDate(chatID)
	if !ok {
		return false
	}

	d, err := models.ParseDate(strings.TrimSpace(update.Message.Text))
	if err != nil {
		b.sendText(ctx, tg, chatID, "❌ Please use the format <code>yyyy-MM-dd</code>, e.g. <code>2026-08-01</code>:")
		return true
	}

	view := b.historyView(chatID)

	if bound == "start" {
		err = view.SetStartDate(d)
	} else {
		err = view.SetEndDate(d, b.today())
	}
	if err != nil {
		b.sendText(ctx, tg, chatID, fmt.Sprintf("❌ %s Please enter another date:", rangeErrorText(err)))
		return true
	}

	b.clearPendingDate(chatID)

	token, err := b.token(chatID)
	if err != nil {
		b.redirectToLogin(ctx, tg, chatID)
		return true
	}
	if err := view.Load(ctx, b.api, token); err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to reload transactions")
		b.sendText(ctx, tg, chatID, "❌ Couldn't reload your records. Please try /history again.")
		return true
	}

	text, keyboard := renderHistory(view)
	_, err = tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   tgmodels.ParseModeHTML,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to send refreshed history")
	}
	return true
}

func rangeErrorText(err error) string {
	if errors.Is(err, history.ErrRangeTooLong) {
		return fmt.Sprintf("Date range cannot be longer than %d days.", history.MaxRangeDays)
	}
	return "That date is outside the allowed range."
}
