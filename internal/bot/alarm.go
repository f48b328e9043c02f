package bot

import (
	"context"
	"fmt"
	"time"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"

	"github.com/spendify/spendify-bot/internal/logger"
	"github.com/spendify/spendify-bot/internal/spending"
)

const (
	// AlarmCheckInterval is how often the alarm loop checks whether to notify.
	AlarmCheckInterval = 30 * time.Minute
	// AlarmTimeout is the maximum time a single alarm check can take.
	AlarmTimeout = 2 * time.Minute

	// alarmWarnPercent is the spending share that triggers the early warning.
	alarmWarnPercent = 80.0

	alarmLevelWarn = "warn"
	alarmLevelOver = "over"
)

// startBudgetAlarmLoop runs a periodic loop that warns signed-in chats when
// their monthly spending approaches or exceeds their budget.
func (b *Bot) startBudgetAlarmLoop(ctx context.Context) {
	if !b.cfg.BudgetAlarmEnabled {
		logger.Log.Info().Msg("Budget alarm is disabled")
		return
	}

	loc, err := time.LoadLocation(b.cfg.BudgetAlarmTimezone)
	if err != nil {
		logger.Log.Error().Err(err).Str("timezone", b.cfg.BudgetAlarmTimezone).Msg("Failed to load alarm timezone, disabling budget alarm")
		return
	}

	logger.Log.Info().
		Int("hour", b.cfg.BudgetAlarmHour).
		Str("timezone", b.cfg.BudgetAlarmTimezone).
		Msg("Budget alarm loop started")

	// notified maps chat ID to "<month>:<level>" of the last alarm, so each
	// chat hears about a level at most once per month.
	notified := make(map[int64]string)
	ticker := time.NewTicker(AlarmCheckInterval)
	defer ticker.Stop()

	// Run one check immediately so alarms aren't skipped when the process
	// starts during the configured alarm hour.
	b.checkBudgetAlarms(ctx, notified, b.nowFn().In(loc))

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info().Msg("Budget alarm loop stopped")
			return
		case <-ticker.C:
			b.checkBudgetAlarms(ctx, notified, b.nowFn().In(loc))
		}
	}
}

// checkBudgetAlarms compares each signed-in chat's month-to-date spending
// with its budget and sends at most one alarm per level per month.
func (b *Bot) checkBudgetAlarms(ctx context.Context, notified map[int64]string, now time.Time) {
	if now.Hour() != b.cfg.BudgetAlarmHour {
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, AlarmTimeout)
	defer cancel()

	monthStr := now.Format("2006-01")

	// Prune entries from previous months so the map doesn't grow unbounded.
	for chatID, mark := range notified {
		if len(mark) < len(monthStr) || mark[:len(monthStr)] != monthStr {
			delete(notified, chatID)
		}
	}

	for _, chatID := range b.sessions.ChatIDs() {
		token, err := b.token(chatID)
		if err != nil {
			continue
		}

		spent, err := spending.CurrentMonth(checkCtx, b.api, token, now)
		if err != nil {
			logger.Log.Warn().Err(err).
				Str("chat_hash", logger.HashChatID(chatID)).
				Msg("Failed to fetch spending for budget alarm")
			continue
		}

		budgetAmount, err := b.local.Budget(checkCtx, chatID)
		if err != nil {
			logger.Log.Warn().Err(err).
				Str("chat_hash", logger.HashChatID(chatID)).
				Msg("Failed to read budget for alarm")
			continue
		}

		budget := decimal.NewFromInt(budgetAmount)
		percent := spent.Div(budget).InexactFloat64() * 100

		var level, text string
		switch {
		case spent.GreaterThan(budget):
			level = alarmLevelOver
			text = fmt.Sprintf(
				"🚨 <b>Budget exceeded!</b>\n\nYou've spent $%s of your $%d monthly budget (%.0f%%).\n\nReview your records with /history.",
				spent.StringFixed(2), budgetAmount, percent)
		case percent >= alarmWarnPercent:
			level = alarmLevelWarn
			text = fmt.Sprintf(
				"⚠️ <b>Budget warning</b>\n\nYou've used %.0f%% of your $%d monthly budget ($%s spent).",
				percent, budgetAmount, spent.StringFixed(2))
		default:
			continue
		}

		mark := monthStr + ":" + level
		if notified[chatID] == mark || (level == alarmLevelWarn && notified[chatID] == monthStr+":"+alarmLevelOver) {
			continue
		}

		_, err = b.messageSender.SendMessage(checkCtx, &tgbot.SendMessageParams{
			ChatID:    chatID,
			Text:      text,
			ParseMode: tgmodels.ParseModeHTML,
		})
		if err != nil {
			logger.Log.Warn().Err(err).
				Str("chat_hash", logger.HashChatID(chatID)).
				Msg("Failed to send budget alarm")
			continue
		}

		notified[chatID] = mark
		logger.Log.Debug().
			Str("chat_hash", logger.HashChatID(chatID)).
			Str("level", level).
			Msg("Sent budget alarm")
	}
}
