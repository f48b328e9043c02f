package bot

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/spendify/spendify-bot/internal/budget"
	"github.com/spendify/spendify-bot/internal/logger"
	"github.com/spendify/spendify-bot/internal/models"
)

// handleBudget handles the /budget command, opening the budget editor.
func (b *Bot) handleBudget(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleBudgetCore(ctx, tgBot, update)
}

// handleBudgetCore is the testable implementation of handleBudget.
func (b *Bot) handleBudgetCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	saved, err := b.local.Budget(ctx, chatID)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to read budget")
		b.sendText(ctx, tg, chatID, "❌ Couldn't load your budget right now. Please try again.")
		return
	}

	editor := budget.NewEditor(saved)

	text, keyboard := renderBudgetEditor(editor)
	msg, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   tgmodels.ParseModeHTML,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to send budget editor")
		return
	}

	b.setBudgetEdit(chatID, &budgetEdit{Editor: editor, MessageID: msg.ID})
}

// renderBudgetEditor builds the editor message and its stepped controls.
func renderBudgetEditor(editor *budget.Editor) (string, *tgmodels.InlineKeyboardMarkup) {
	text := fmt.Sprintf(`💰 <b>Monthly Budget</b>

Current: <b>$%d</b>

Adjust with the buttons, or type an amount between $%d and $%d.`,
		editor.Slider, models.MinBudget, models.MaxBudget)

	if editor.Err != "" {
		text += "\n\n⚠️ " + editor.Err
	}

	keyboard := &tgmodels.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
			{
				{Text: fmt.Sprintf("-%d", models.BudgetStep), CallbackData: "budget_dec"},
				{Text: fmt.Sprintf("+%d", models.BudgetStep), CallbackData: "budget_inc"},
			},
			{
				{Text: "💾 Save", CallbackData: "budget_save"},
				{Text: "❌ Cancel", CallbackData: "budget_cancel"},
			},
		},
	}
	return text, keyboard
}

// handleBudgetCallback handles budget editor button presses.
func (b *Bot) handleBudgetCallback(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleBudgetCallbackCore(ctx, tgBot, update)
}

// handleBudgetCallbackCore is the testable implementation of handleBudgetCallback.
func (b *Bot) handleBudgetCallbackCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.CallbackQuery == nil {
		return
	}

	chatID := update.CallbackQuery.Message.Message.Chat.ID
	data := update.CallbackQuery.Data

	_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	})

	edit, ok := b.budgetEdit(chatID)
	if !ok {
		b.sendText(ctx, tg, chatID, "This editor has expired. Open it again with /budget.")
		return
	}

	switch data {
	case "budget_dec":
		edit.Editor.Step(-1)
		b.refreshBudgetEditor(ctx, tg, chatID, edit)

	case "budget_inc":
		edit.Editor.Step(1)
		b.refreshBudgetEditor(ctx, tg, chatID, edit)

	case "budget_save":
		b.saveBudget(ctx, tg, chatID, edit)

	case "budget_cancel":
		b.clearBudgetEdit(chatID)
		b.sendText(ctx, tg, chatID, "Cancelled. Your budget is unchanged.")
	}
}

// handlePendingBudgetInput consumes a typed amount for an open budget
// editor. Returns false when no editor is open.
func (b *Bot) handlePendingBudgetInput(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) bool {
	chatID := update.Message.Chat.ID

	edit, ok := b.budgetEdit(chatID)
	if !ok {
		return false
	}

	edit.Editor.SetText(update.Message.Text)
	b.refreshBudgetEditor(ctx, tg, chatID, edit)
	return true
}

func (b *Bot) refreshBudgetEditor(ctx context.Context, tg TelegramAPI, chatID int64, edit *budgetEdit) {
	text, keyboard := renderBudgetEditor(edit.Editor)
	_, err := tg.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   edit.MessageID,
		Text:        text,
		ParseMode:   tgmodels.ParseModeHTML,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to refresh budget editor")
	}
}

// saveBudget persists the editor's value when it is in range.
func (b *Bot) saveBudget(ctx context.Context, tg TelegramAPI, chatID int64, edit *budgetEdit) {
	value, err := edit.Editor.Value()
	if err != nil {
		b.sendText(ctx, tg, chatID, "❌ "+err.Error())
		return
	}

	if err := b.local.SetBudget(ctx, chatID, value); err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to save budget")
		b.sendText(ctx, tg, chatID, "❌ Failed to save your budget. Please try again.")
		return
	}

	b.clearBudgetEdit(chatID)

	logger.Log.Info().
		Str("chat_hash", logger.HashChatID(chatID)).
		Int64("budget", value).
		Msg("Budget saved")

	b.sendText(ctx, tg, chatID, fmt.Sprintf("✅ Monthly budget set to <b>$%d</b>.", value))
}
