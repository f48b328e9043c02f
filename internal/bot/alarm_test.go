package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spendify/spendify-bot/internal/bot/mocks"
)

// spendingBackend serves a fixed month-to-date total as one transaction.
func spendingBackend(t *testing.T, amount float64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"content": []any{
			map[string]any{"id": 1, "amount": amount, "transactionDate": "2026-08-10", "categoryId": 1, "categoryName": "Food"},
		}})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func alarmTime(hour int) time.Time {
	return time.Date(2026, time.August, 29, hour, 5, 0, 0, time.UTC)
}

func TestCheckBudgetAlarms(t *testing.T) {
	ctx := context.Background()

	t.Run("over budget sends one alarm and dedupes", func(t *testing.T) {
		srv := spendingBackend(t, 2500)
		b := setupTestBot(t, srv.URL)
		chatID := int64(1100)
		signInTestUser(t, b, chatID)

		mockBot := mocks.NewMockBot()
		b.messageSender = mockBot
		notified := make(map[int64]string)

		b.checkBudgetAlarms(ctx, notified, alarmTime(20))

		require.Len(t, mockBot.SentMessages, 1)
		require.Contains(t, mockBot.LastMessage(), "Budget exceeded")
		require.Contains(t, mockBot.LastMessage(), "$2500.00")

		// A second check in the same month stays quiet.
		b.checkBudgetAlarms(ctx, notified, alarmTime(20))
		require.Len(t, mockBot.SentMessages, 1)
	})

	t.Run("80 percent sends a warning", func(t *testing.T) {
		srv := spendingBackend(t, 1700)
		b := setupTestBot(t, srv.URL)
		chatID := int64(1101)
		signInTestUser(t, b, chatID)

		mockBot := mocks.NewMockBot()
		b.messageSender = mockBot
		notified := make(map[int64]string)

		b.checkBudgetAlarms(ctx, notified, alarmTime(20))

		require.Len(t, mockBot.SentMessages, 1)
		require.Contains(t, mockBot.LastMessage(), "Budget warning")
	})

	t.Run("under the threshold stays quiet", func(t *testing.T) {
		srv := spendingBackend(t, 500)
		b := setupTestBot(t, srv.URL)
		chatID := int64(1102)
		signInTestUser(t, b, chatID)

		mockBot := mocks.NewMockBot()
		b.messageSender = mockBot
		notified := make(map[int64]string)

		b.checkBudgetAlarms(ctx, notified, alarmTime(20))

		require.Empty(t, mockBot.SentMessages)
	})

	t.Run("outside the configured hour nothing happens", func(t *testing.T) {
		srv := spendingBackend(t, 9999)
		b := setupTestBot(t, srv.URL)
		chatID := int64(1103)
		signInTestUser(t, b, chatID)

		mockBot := mocks.NewMockBot()
		b.messageSender = mockBot
		notified := make(map[int64]string)

		b.checkBudgetAlarms(ctx, notified, alarmTime(9))

		require.Empty(t, mockBot.SentMessages)
	})

	t.Run("stale month marks are pruned", func(t *testing.T) {
		srv := spendingBackend(t, 2500)
		b := setupTestBot(t, srv.URL)
		chatID := int64(1104)
		signInTestUser(t, b, chatID)

		mockBot := mocks.NewMockBot()
		b.messageSender = mockBot
		notified := map[int64]string{chatID: "2026-07:over"}

		b.checkBudgetAlarms(ctx, notified, alarmTime(20))

		require.Len(t, mockBot.SentMessages, 1)
		require.Equal(t, "2026-08:over", notified[chatID])
	})
}
