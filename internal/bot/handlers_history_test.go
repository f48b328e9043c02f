package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/spendify/spendify-bot/internal/bot/mocks"
	"github.com/spendify/spendify-bot/internal/models"
)

func makeTx(id int, amount string, date models.Date, categoryID int, categoryName, merchant string) models.Transaction {
	return models.Transaction{
		ID:              id,
		Amount:          mustDecimal(amount),
		TransactionDate: date,
		CategoryID:      categoryID,
		CategoryName:    categoryName,
		Merchant:        merchant,
	}
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic("invalid decimal in test: " + s)
	}
	return d
}

func seedHistory(b *Bot, chatID int64) {
	view := b.historyView(chatID)
	view.SetTransactions([]models.Transaction{
		makeTx(1, "12.00", models.NewDate(2026, time.August, 25), 1, "Food", "Cafe"),
		makeTx(2, "30.00", models.NewDate(2026, time.August, 20), 2, "Transport", "MTR"),
		makeTx(3, "5.50", models.NewDate(2026, time.August, 10), 1, "Food", "Bakery"),
	})
}

func TestHandleHistoryCore(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"startDate": r.URL.Query().Get("startDate"),
			"endDate":   r.URL.Query().Get("endDate"),
			"size":      r.URL.Query().Get("size"),
			"sort":      r.URL.Query().Get("sort"),
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"content": []any{
			map[string]any{"id": 1, "amount": 12.0, "transactionDate": "2026-08-25", "categoryId": 1, "categoryName": "Food", "merchant": "Cafe"},
		}})
	}))
	defer srv.Close()

	b := setupTestBot(t, srv.URL)
	ctx := context.Background()
	chatID := int64(500)
	signInTestUser(t, b, chatID)

	mockBot := mocks.NewMockBot()
	b.handleHistoryCore(ctx, mockBot, messageUpdate(chatID, "/history"))

	require.Equal(t, "2026-07-30", gotQuery["startDate"])
	require.Equal(t, "2026-08-29", gotQuery["endDate"])
	require.Equal(t, "1000", gotQuery["size"])
	require.Equal(t, "transactionDate,desc", gotQuery["sort"])

	require.Len(t, mockBot.SentMessages, 1)
	msg := mockBot.SentMessages[0]
	require.Contains(t, msg.Text, "Records")
	require.Contains(t, msg.Text, "1 record(s)")
	require.NotNil(t, msg.ReplyMarkup)
}

func TestRenderHistory(t *testing.T) {
	b := setupTestBot(t, "http://unused.invalid")
	chatID := int64(501)
	seedHistory(b, chatID)
	view := b.historyView(chatID)

	text, keyboard := renderHistory(view)
	require.Contains(t, text, "3 record(s)")

	// First chip row starts with the selected "All" chip, then chips in
	// first-seen order of the newest-first list.
	chips := keyboard.InlineKeyboard[0]
	require.Equal(t, "✓ All", chips[0].Text)
	require.Equal(t, "Food", chips[1].Text)
	require.Equal(t, "Transport", chips[2].Text)

	t.Run("category toggle filters rows and marks the chip", func(t *testing.T) {
		view.ToggleCategory(2)
		text, keyboard := renderHistory(view)

		require.Contains(t, text, "1 record(s)")
		chips := keyboard.InlineKeyboard[0]
		require.Equal(t, "All", chips[0].Text)
		require.Equal(t, "✓ Transport", chips[2].Text)

		view.ToggleCategory(models.AllCategories)
	})

	t.Run("expanded row shows detail and action buttons", func(t *testing.T) {
		view.ToggleExpanded(2)
		text, keyboard := renderHistory(view)

		require.Contains(t, text, "MTR")
		require.Contains(t, text, "$30.00")

		var haveActions bool
		for _, row := range keyboard.InlineKeyboard {
			if len(row) == 2 && row[0].CallbackData == "hist_edit_2" && row[1].CallbackData == "hist_del_2" {
				haveActions = true
			}
		}
		require.True(t, haveActions)

		view.ToggleExpanded(2)
	})
}

func TestHistoryCallbacks(t *testing.T) {
	b := setupTestBot(t, "http://unused.invalid")
	ctx := context.Background()
	chatID := int64(502)
	signInTestUser(t, b, chatID)
	seedHistory(b, chatID)

	t.Run("row tap expands and re-renders in place", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleHistoryCallbackCore(ctx, mockBot, callbackUpdate(chatID, 100, "hist_row_1"))

		require.Len(t, mockBot.AnsweredCallbacks, 1)
		require.Len(t, mockBot.EditedMessages, 1)
		require.Equal(t, 100, mockBot.EditedMessages[0].MessageID)
		require.Equal(t, 1, b.historyView(chatID).ExpandedID)
	})

	t.Run("second row tap moves the expansion", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleHistoryCallbackCore(ctx, mockBot, callbackUpdate(chatID, 100, "hist_row_3"))
		require.Equal(t, 3, b.historyView(chatID).ExpandedID)

		b.handleHistoryCallbackCore(ctx, mockBot, callbackUpdate(chatID, 100, "hist_row_3"))
		require.Equal(t, 0, b.historyView(chatID).ExpandedID)
	})

	t.Run("delete asks for confirmation first", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleHistoryCallbackCore(ctx, mockBot, callbackUpdate(chatID, 100, "hist_del_2"))

		require.Len(t, mockBot.EditedMessages, 1)
		require.Contains(t, mockBot.EditedMessages[0].Text, "Delete this record?")
		require.Len(t, b.historyView(chatID).All, 3)
	})

	t.Run("start date button opens a prompt", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleHistoryCallbackCore(ctx, mockBot, callbackUpdate(chatID, 100, "hist_start"))

		require.Contains(t, mockBot.LastMessage(), "start")
		bound, ok := b.pendingDate(chatID)
		require.True(t, ok)
		require.Equal(t, "start", bound)
		b.clearPendingDate(chatID)
	})
}

func TestDeleteConfirmRemovesRecord(t *testing.T) {
	var deletedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deletedPath = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"content": []any{}})
	}))
	defer srv.Close()

	b := setupTestBot(t, srv.URL)
	ctx := context.Background()
	chatID := int64(503)
	signInTestUser(t, b, chatID)
	seedHistory(b, chatID)

	mockBot := mocks.NewMockBot()
	b.handleHistoryCallbackCore(ctx, mockBot, callbackUpdate(chatID, 100, "hist_delc_2"))

	require.Equal(t, "/transactions/2", deletedPath)

	view := b.historyView(chatID)
	require.Len(t, view.All, 2)
	_, found := view.Find(2)
	require.False(t, found)

	// List re-rendered without the deleted row.
	require.NotEmpty(t, mockBot.EditedMessages)
}

func TestPendingDateInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"content": []any{}})
	}))
	defer srv.Close()

	b := setupTestBot(t, srv.URL)
	ctx := context.Background()
	chatID := int64(504)
	signInTestUser(t, b, chatID)

	t.Run("not handled without a pending edit", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		require.False(t, b.handlePendingDateInput(ctx, mockBot, messageUpdate(chatID, "2026-08-01")))
	})

	t.Run("malformed date keeps the prompt open", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.setPendingDate(chatID, "start")

		require.True(t, b.handlePendingDateInput(ctx, mockBot, messageUpdate(chatID, "08/01/2026")))
		require.Contains(t, mockBot.LastMessage(), "yyyy-MM-dd")

		_, stillPending := b.pendingDate(chatID)
		require.True(t, stillPending)
	})

	t.Run("over-long span is rejected", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.setPendingDate(chatID, "start")

		require.True(t, b.handlePendingDateInput(ctx, mockBot, messageUpdate(chatID, "2025-01-01")))
		require.Contains(t, mockBot.LastMessage(), fmt.Sprintf("%d days", 90))

		_, stillPending := b.pendingDate(chatID)
		require.True(t, stillPending)
	})

	t.Run("valid date reloads and sends a fresh list", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.setPendingDate(chatID, "start")

		require.True(t, b.handlePendingDateInput(ctx, mockBot, messageUpdate(chatID, "2026-08-15")))

		view := b.historyView(chatID)
		require.Equal(t, models.NewDate(2026, time.August, 15), view.Range.Start)

		_, stillPending := b.pendingDate(chatID)
		require.False(t, stillPending)
		require.Contains(t, mockBot.LastMessage(), "Records")
	})
}
