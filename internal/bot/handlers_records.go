package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"

	"github.com/spendify/spendify-bot/internal/api"
	"github.com/spendify/spendify-bot/internal/logger"
	"github.com/spendify/spendify-bot/internal/models"
)

const skipFieldInput = "-"

// handleAdd handles the /add command, starting the step-by-step record flow.
func (b *Bot) handleAdd(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleAddCore(ctx, tgBot, update)
}

// handleAddCore is the testable implementation of handleAdd.
func (b *Bot) handleAddCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	b.setPendingRecord(chatID, &pendingRecord{
		Step:  recordStepAmount,
		Draft: api.TransactionInput{TransactionDate: b.today()},
	})

	b.sendText(ctx, tg, chatID, `➕ <b>New Record</b>

💰 Enter the amount (e.g. <code>23.50</code>):`)
}

// handlePendingRecordInput consumes a text message belonging to an open
// record draft. Returns false when no draft is open or the draft is waiting
// on a button press instead.
func (b *Bot) handlePendingRecordInput(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) bool {
	chatID := update.Message.Chat.ID

	pending, ok := b.pendingRecord(chatID)
	if !ok {
		return false
	}

	input := strings.TrimSpace(update.Message.Text)

	if pending.AwaitingField != "" {
		b.applyFieldInput(ctx, tg, chatID, pending, input)
		return true
	}

	switch pending.Step {
	case recordStepAmount:
		amount, err := parseAmount(input)
		if err != nil {
			b.sendText(ctx, tg, chatID, "❌ "+err.Error()+" Please try again:")
			return true
		}
		pending.Draft.Amount = amount
		pending.Step = recordStepDate
		b.setPendingRecord(chatID, pending)
		b.sendText(ctx, tg, chatID, "📅 Enter the date as <code>yyyy-MM-dd</code>, or send <code>today</code>:")

	case recordStepDate:
		d, err := b.parseRecordDate(input)
		if err != nil {
			b.sendText(ctx, tg, chatID, "❌ "+err.Error()+" Please try again:")
			return true
		}
		pending.Draft.TransactionDate = d
		pending.Step = recordStepCategory
		b.setPendingRecord(chatID, pending)
		b.showCategoryPicker(ctx, tg, chatID)

	case recordStepCategory:
		// Categories are picked from the keyboard, not typed.
		b.sendText(ctx, tg, chatID, "📁 Please pick a category from the buttons above.")

	case recordStepMerchant:
		if input != skipFieldInput {
			pending.Draft.Merchant = input
		}
		pending.Step = recordStepDescription
		b.setPendingRecord(chatID, pending)
		b.sendText(ctx, tg, chatID, "📝 Add a note, or send <code>-</code> to skip:")

	case recordStepDescription:
		if input != skipFieldInput {
			pending.Draft.Description = input
		}
		pending.Step = recordStepPreview
		b.setPendingRecord(chatID, pending)
		b.showRecordPreview(ctx, tg, chatID, pending)

	case recordStepPreview:
		b.sendText(ctx, tg, chatID, "Use the buttons on the preview to edit, save or cancel.")
	}

	return true
}

// applyFieldInput handles typed input for a single field edited from the
// preview keyboard, then re-renders the preview.
func (b *Bot) applyFieldInput(ctx context.Context, tg TelegramAPI, chatID int64, pending *pendingRecord, input string) {
	switch pending.AwaitingField {
	case "amount":
		amount, err := parseAmount(input)
		if err != nil {
			b.sendText(ctx, tg, chatID, "❌ "+err.Error()+" Please try again:")
			return
		}
		pending.Draft.Amount = amount

	case "date":
		d, err := b.parseRecordDate(input)
		if err != nil {
			b.sendText(ctx, tg, chatID, "❌ "+err.Error()+" Please try again:")
			return
		}
		pending.Draft.TransactionDate = d

	case "merchant":
		if input == skipFieldInput {
			pending.Draft.Merchant = ""
		} else {
			pending.Draft.Merchant = input
		}

	case "description":
		if input == skipFieldInput {
			pending.Draft.Description = ""
		} else {
			pending.Draft.Description = input
		}
	}

	pending.AwaitingField = ""
	b.setPendingRecord(chatID, pending)
	b.showRecordPreview(ctx, tg, chatID, pending)
}

func parseAmount(input string) (decimal.Decimal, error) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(input), "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, errors.New("That doesn't look like a number.")
	}
	if amount.IsZero() {
		return decimal.Zero, errors.New("Amount can't be zero.")
	}
	return amount, nil
}

func (b *Bot) parseRecordDate(input string) (models.Date, error) {
	if strings.EqualFold(input, "today") {
		return b.today(), nil
	}
	d, err := models.ParseDate(input)
	if err != nil {
		return models.Date{}, errors.New("Please use the format yyyy-MM-dd.")
	}
	if d.After(b.today()) {
		return models.Date{}, errors.New("Date can't be in the future.")
	}
	return d, nil
}

// showCategoryPicker fetches the category list and renders it as buttons.
func (b *Bot) showCategoryPicker(ctx context.Context, tg TelegramAPI, chatID int64) {
	token, err := b.token(chatID)
	if err != nil {
		b.redirectToLogin(ctx, tg, chatID)
		return
	}

	categories, err := b.api.Categories(ctx, token)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to fetch categories")
		b.sendText(ctx, tg, chatID, "❌ Couldn't load categories. Please try again.")
		return
	}
	if len(categories) == 0 {
		b.sendText(ctx, tg, chatID, "❌ No categories available. Please try again later.")
		return
	}

	var rows [][]tgmodels.InlineKeyboardButton
	for start := 0; start < len(categories); start += 2 {
		end := start + 2
		if end > len(categories) {
			end = len(categories)
		}
		var row []tgmodels.InlineKeyboardButton
		for _, cat := range categories[start:end] {
			row = append(row, tgmodels.InlineKeyboardButton{
				Text:         cat.Name,
				CallbackData: fmt.Sprintf("rec_cat_%d", cat.ID),
			})
		}
		rows = append(rows, row)
	}
	rows = append(rows, []tgmodels.InlineKeyboardButton{
		{Text: "❌ Cancel", CallbackData: "rec_cancel"},
	})

	_, err = tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        "📁 Pick a category:",
		ParseMode:   tgmodels.ParseModeHTML,
		ReplyMarkup: &tgmodels.InlineKeyboardMarkup{InlineKeyboard: rows},
	})
	if err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to send category picker")
	}
}

// showRecordPreview renders the draft with per-field edit buttons and an
// explicit save step.
func (b *Bot) showRecordPreview(ctx context.Context, tg TelegramAPI, chatID int64, pending *pendingRecord) {
	title := "➕ <b>New Record</b>"
	saveLabel := "✅ Save"
	if pending.EditingID != 0 {
		title = "✏️ <b>Edit Record</b>"
		saveLabel = "✅ Save Changes"
	}
	if pending.FromReceipt && pending.Partial {
		title = "⚠️ <b>Partial Extraction - Please Verify</b>"
	} else if pending.FromReceipt {
		title = "📸 <b>Receipt Scanned!</b>"
	}

	merchant := pending.Draft.Merchant
	if merchant == "" {
		merchant = "(none)"
	}
	note := pending.Draft.Description
	if note == "" {
		note = "(none)"
	}
	category := pending.CategoryName
	if category == "" {
		category = "(none)"
	}

	text := fmt.Sprintf(`%s

💰 Amount: <b>$%s</b>
📅 Date: %s
📁 Category: %s
🏪 Merchant: %s
📝 Note: %s`,
		title,
		pending.Draft.Amount.StringFixed(2),
		pending.Draft.TransactionDate,
		escapeHTML(category),
		escapeHTML(merchant),
		escapeHTML(note))

	keyboard := &tgmodels.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
			{
				{Text: "✏️ Amount", CallbackData: "rec_field_amount"},
				{Text: "📅 Date", CallbackData: "rec_field_date"},
			},
			{
				{Text: "📁 Category", CallbackData: "rec_cats"},
				{Text: "🏪 Merchant", CallbackData: "rec_field_merchant"},
			},
			{
				{Text: "📝 Note", CallbackData: "rec_field_description"},
			},
			{
				{Text: saveLabel, CallbackData: "rec_save"},
				{Text: "❌ Cancel", CallbackData: "rec_cancel"},
			},
		},
	}

	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   tgmodels.ParseModeHTML,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to send record preview")
	}
}

// handleRecordCallback handles record draft button presses.
func (b *Bot) handleRecordCallback(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleRecordCallbackCore(ctx, tgBot, update)
}

// handleRecordCallbackCore is the testable implementation of handleRecordCallback.
func (b *Bot) handleRecordCallbackCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.CallbackQuery == nil {
		return
	}

	chatID := update.CallbackQuery.Message.Message.Chat.ID
	data := update.CallbackQuery.Data

	_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	})

	if data == "rec_cancel" {
		b.clearPendingRecord(chatID)
		b.sendText(ctx, tg, chatID, "Cancelled. Nothing was saved.")
		return
	}

	pending, ok := b.pendingRecord(chatID)
	if !ok {
		b.sendText(ctx, tg, chatID, "This draft has expired. Start again with /add.")
		return
	}

	switch {
	case strings.HasPrefix(data, "rec_cat_"):
		id, err := strconv.Atoi(strings.TrimPrefix(data, "rec_cat_"))
		if err != nil {
			return
		}
		b.selectCategory(ctx, tg, chatID, pending, id)

	case data == "rec_cats":
		b.showCategoryPicker(ctx, tg, chatID)

	case strings.HasPrefix(data, "rec_field_"):
		field := strings.TrimPrefix(data, "rec_field_")
		pending.AwaitingField = field
		b.setPendingRecord(chatID, pending)
		prompts := map[string]string{
			"amount":      "💰 Enter the new amount:",
			"date":        "📅 Enter the new date as <code>yyyy-MM-dd</code>, or send <code>today</code>:",
			"merchant":    "🏪 Enter the merchant, or send <code>-</code> to clear it:",
			"description": "📝 Enter the note, or send <code>-</code> to clear it:",
		}
		if prompt, ok := prompts[field]; ok {
			b.sendText(ctx, tg, chatID, prompt)
		}

	case data == "rec_save":
		b.saveRecord(ctx, tg, chatID, pending)
	}
}

// selectCategory resolves the chosen category name and advances the flow.
func (b *Bot) selectCategory(ctx context.Context, tg TelegramAPI, chatID int64, pending *pendingRecord, id int) {
	token, err := b.token(chatID)
	if err != nil {
		b.redirectToLogin(ctx, tg, chatID)
		return
	}

	categories, err := b.api.Categories(ctx, token)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to fetch categories")
		b.sendText(ctx, tg, chatID, "❌ Couldn't load categories. Please try again.")
		return
	}

	name := ""
	for _, cat := range categories {
		if cat.ID == id {
			name = cat.Name
			break
		}
	}
	if name == "" {
		b.sendText(ctx, tg, chatID, "❌ That category no longer exists. Please pick another one.")
		return
	}

	pending.Draft.CategoryID = id
	pending.CategoryName = name

	if pending.Step == recordStepCategory {
		pending.Step = recordStepMerchant
		b.setPendingRecord(chatID, pending)
		b.sendText(ctx, tg, chatID, "🏪 Enter the merchant, or send <code>-</code> to skip:")
		return
	}

	b.setPendingRecord(chatID, pending)
	b.showRecordPreview(ctx, tg, chatID, pending)
}

// saveRecord submits the draft: POST for new records, PUT when editing.
func (b *Bot) saveRecord(ctx context.Context, tg TelegramAPI, chatID int64, pending *pendingRecord) {
	if pending.Draft.Amount.IsZero() {
		b.sendText(ctx, tg, chatID, "❌ Amount can't be zero. Edit the amount before saving.")
		return
	}
	if pending.Draft.CategoryID == 0 {
		b.sendText(ctx, tg, chatID, "❌ Please pick a category before saving.")
		return
	}

	token, err := b.token(chatID)
	if err != nil {
		b.redirectToLogin(ctx, tg, chatID)
		return
	}

	if pending.EditingID != 0 {
		updated, err := b.api.UpdateTransaction(ctx, token, pending.EditingID, pending.Draft)
		if err != nil {
			logger.Log.Error().Err(err).
				Str("chat_hash", logger.HashChatID(chatID)).
				Int("transaction_id", pending.EditingID).
				Msg("Failed to update transaction")
			b.sendText(ctx, tg, chatID, "❌ Failed to save changes. Please try again.")
			return
		}

		b.historyView(chatID).ApplyUpdate(*updated)
		b.clearPendingRecord(chatID)

		logger.Log.Info().
			Str("chat_hash", logger.HashChatID(chatID)).
			Int("transaction_id", updated.ID).
			Msg("Transaction updated")

		b.sendText(ctx, tg, chatID, fmt.Sprintf("✅ Record updated: $%s on %s.",
			updated.Amount.StringFixed(2), updated.TransactionDate))
		return
	}

	created, err := b.api.CreateTransaction(ctx, token, pending.Draft)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to create transaction")
		b.sendText(ctx, tg, chatID, "❌ Failed to save the record. Please try again.")
		return
	}

	b.clearPendingRecord(chatID)

	logger.Log.Info().
		Str("chat_hash", logger.HashChatID(chatID)).
		Int("transaction_id", created.ID).
		Str("amount", created.Amount.String()).
		Msg("Transaction created")

	b.sendText(ctx, tg, chatID, fmt.Sprintf("✅ Saved: $%s at %s on %s.\n\nSee it in /history.",
		created.Amount.StringFixed(2),
		escapeHTML(transactionTitle(*created)),
		created.TransactionDate))
}
