package bot

import (
	"crypto/rand"
	"path/filepath"
	"testing"
	"time"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/spendify/spendify-bot/internal/api"
	"github.com/spendify/spendify-bot/internal/config"
	"github.com/spendify/spendify-bot/internal/history"
	"github.com/spendify/spendify-bot/internal/localstore"
	"github.com/spendify/spendify-bot/internal/models"
	"github.com/spendify/spendify-bot/internal/session"
)

// testNow is the fixed clock for handler tests.
var testNow = time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC)

// setupTestBot creates a Bot wired to a test backend URL, with real session
// and local stores in a temp dir. The Telegram connection itself is never
// opened; handlers are exercised through their cores with a MockBot.
func setupTestBot(t *testing.T, backendURL string) *Bot {
	t.Helper()

	dir := t.TempDir()

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	sessions, err := session.NewStore(filepath.Join(dir, "sessions.enc"), key)
	require.NoError(t, err)

	local, err := localstore.Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	cfg := &config.Config{
		TelegramBotToken:    "test-token",
		APIBaseURL:          backendURL,
		BudgetAlarmEnabled:  true,
		BudgetAlarmHour:     20,
		BudgetAlarmTimezone: "UTC",
	}

	return &Bot{
		cfg:            cfg,
		api:            api.NewClient(backendURL),
		sessions:       sessions,
		local:          local,
		nowFn:          func() time.Time { return testNow },
		pendingAuth:    make(map[int64]*pendingAuth),
		pendingRecords: make(map[int64]*pendingRecord),
		budgetEditors:  make(map[int64]*budgetEdit),
		pendingDates:   make(map[int64]string),
		histories:      make(map[int64]*history.View),
	}
}

// signInTestUser stores a session for the chat so guarded handlers pass.
func signInTestUser(t *testing.T, b *Bot, chatID int64) {
	t.Helper()
	err := b.sessions.SignIn(chatID, "test-access-token", "test-refresh-token", &models.User{
		ID:    1,
		Email: "test@example.com",
	})
	require.NoError(t, err)
}

// transactionInputFixture is a complete valid draft for preview tests.
func transactionInputFixture() api.TransactionInput {
	return api.TransactionInput{
		Amount:          decimal.NewFromFloat(23.50),
		TransactionDate: models.NewDate(2026, time.August, 20),
		CategoryID:      1,
		Merchant:        "Cafe",
	}
}

// messageUpdate builds a plain text message update.
func messageUpdate(chatID int64, text string) *tgmodels.Update {
	return &tgmodels.Update{
		Message: &tgmodels.Message{
			Chat: tgmodels.Chat{ID: chatID},
			From: &tgmodels.User{ID: chatID, FirstName: "Test"},
			Text: text,
		},
	}
}

// callbackUpdate builds a callback query update bound to a message.
func callbackUpdate(chatID int64, messageID int, data string) *tgmodels.Update {
	return &tgmodels.Update{
		CallbackQuery: &tgmodels.CallbackQuery{
			ID:   "cb-1",
			From: tgmodels.User{ID: chatID},
			Data: data,
			Message: tgmodels.MaybeInaccessibleMessage{
				Message: &tgmodels.Message{
					ID:   messageID,
					Chat: tgmodels.Chat{ID: chatID},
				},
			},
		},
	}
}
