package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spendify/spendify-bot/internal/bot/mocks"
)

// recordBackend fakes the category and transaction endpoints, capturing the
// last create or update request body.
type recordBackend struct {
	srv        *httptest.Server
	lastMethod string
	lastPath   string
	lastBody   map[string]any
}

func newRecordBackend(t *testing.T) *recordBackend {
	t.Helper()
	rb := &recordBackend{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /categories", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "name": "Food"},
			{"id": 2, "name": "Transport"},
			{"id": 3, "name": "Shopping"},
		})
	})
	mux.HandleFunc("/transactions", func(w http.ResponseWriter, r *http.Request) {
		rb.capture(r)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 99, "amount": rb.lastBody["amount"],
			"transactionDate": rb.lastBody["transactionDate"],
			"categoryId":      rb.lastBody["categoryId"],
			"categoryName":    "Food",
			"merchant":        rb.lastBody["merchant"],
		})
	})
	mux.HandleFunc("/transactions/", func(w http.ResponseWriter, r *http.Request) {
		rb.capture(r)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 2, "amount": rb.lastBody["amount"],
			"transactionDate": rb.lastBody["transactionDate"],
			"categoryId":      rb.lastBody["categoryId"],
			"categoryName":    "Transport",
			"merchant":        rb.lastBody["merchant"],
		})
	})

	rb.srv = httptest.NewServer(mux)
	t.Cleanup(rb.srv.Close)
	return rb
}

func (rb *recordBackend) capture(r *http.Request) {
	rb.lastMethod = r.Method
	rb.lastPath = r.URL.Path
	rb.lastBody = map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&rb.lastBody)
}

func TestAddRecordFlow(t *testing.T) {
	backend := newRecordBackend(t)
	b := setupTestBot(t, backend.srv.URL)
	ctx := context.Background()
	chatID := int64(600)
	signInTestUser(t, b, chatID)

	mockBot := mocks.NewMockBot()

	b.handleAddCore(ctx, mockBot, messageUpdate(chatID, "/add"))
	require.Contains(t, mockBot.LastMessage(), "amount")

	t.Run("zero amount is rejected", func(t *testing.T) {
		require.True(t, b.handlePendingRecordInput(ctx, mockBot, messageUpdate(chatID, "0")))
		require.Contains(t, mockBot.LastMessage(), "zero")
	})

	t.Run("junk amount is rejected", func(t *testing.T) {
		require.True(t, b.handlePendingRecordInput(ctx, mockBot, messageUpdate(chatID, "lots")))
		require.Contains(t, mockBot.LastMessage(), "number")
	})

	require.True(t, b.handlePendingRecordInput(ctx, mockBot, messageUpdate(chatID, "$23.50")))
	require.Contains(t, mockBot.LastMessage(), "date")

	t.Run("future date is rejected", func(t *testing.T) {
		require.True(t, b.handlePendingRecordInput(ctx, mockBot, messageUpdate(chatID, "2026-09-15")))
		require.Contains(t, mockBot.LastMessage(), "future")
	})

	require.True(t, b.handlePendingRecordInput(ctx, mockBot, messageUpdate(chatID, "today")))
	require.Contains(t, mockBot.LastMessage(), "category")

	// Category comes from the picker keyboard.
	b.handleRecordCallbackCore(ctx, mockBot, callbackUpdate(chatID, 100, "rec_cat_1"))
	require.Contains(t, mockBot.LastMessage(), "merchant")

	require.True(t, b.handlePendingRecordInput(ctx, mockBot, messageUpdate(chatID, "Cafe Nero")))
	require.True(t, b.handlePendingRecordInput(ctx, mockBot, messageUpdate(chatID, "-")))

	// Now on the preview.
	preview := mockBot.LastMessage()
	require.Contains(t, preview, "New Record")
	require.Contains(t, preview, "$23.50")
	require.Contains(t, preview, "Food")
	require.Contains(t, preview, "Cafe Nero")

	b.handleRecordCallbackCore(ctx, mockBot, callbackUpdate(chatID, 100, "rec_save"))

	require.Equal(t, http.MethodPost, backend.lastMethod)
	require.Equal(t, "/transactions", backend.lastPath)
	require.Equal(t, 23.5, backend.lastBody["amount"])
	require.Equal(t, "2026-08-29", backend.lastBody["transactionDate"])
	require.Equal(t, float64(1), backend.lastBody["categoryId"])
	require.Equal(t, "Cafe Nero", backend.lastBody["merchant"])

	require.Contains(t, mockBot.LastMessage(), "Saved")

	_, stillPending := b.pendingRecord(chatID)
	require.False(t, stillPending)
}

func TestRecordPreviewFieldEdit(t *testing.T) {
	backend := newRecordBackend(t)
	b := setupTestBot(t, backend.srv.URL)
	ctx := context.Background()
	chatID := int64(601)
	signInTestUser(t, b, chatID)

	mockBot := mocks.NewMockBot()
	b.setPendingRecord(chatID, &pendingRecord{
		Step:         recordStepPreview,
		CategoryName: "Food",
		Draft:        transactionInputFixture(),
	})

	b.handleRecordCallbackCore(ctx, mockBot, callbackUpdate(chatID, 100, "rec_field_amount"))
	require.Contains(t, mockBot.LastMessage(), "amount")

	require.True(t, b.handlePendingRecordInput(ctx, mockBot, messageUpdate(chatID, "42")))
	require.Contains(t, mockBot.LastMessage(), "$42.00")

	pending, ok := b.pendingRecord(chatID)
	require.True(t, ok)
	require.Empty(t, pending.AwaitingField)
}

func TestRecordEditSavesUpdate(t *testing.T) {
	backend := newRecordBackend(t)
	b := setupTestBot(t, backend.srv.URL)
	ctx := context.Background()
	chatID := int64(602)
	signInTestUser(t, b, chatID)
	seedHistory(b, chatID)

	mockBot := mocks.NewMockBot()

	// Open the edit from the history list.
	b.handleHistoryCallbackCore(ctx, mockBot, callbackUpdate(chatID, 100, "hist_edit_2"))
	require.Contains(t, mockBot.LastMessage(), "Edit Record")
	require.Contains(t, mockBot.LastMessage(), "$30.00")

	// Change the amount, then save.
	b.handleRecordCallbackCore(ctx, mockBot, callbackUpdate(chatID, 100, "rec_field_amount"))
	require.True(t, b.handlePendingRecordInput(ctx, mockBot, messageUpdate(chatID, "45.00")))

	b.handleRecordCallbackCore(ctx, mockBot, callbackUpdate(chatID, 100, "rec_save"))

	require.Equal(t, http.MethodPut, backend.lastMethod)
	require.Equal(t, "/transactions/2", backend.lastPath)
	require.Equal(t, 45.0, backend.lastBody["amount"])

	// The view got the update in place.
	tx, found := b.historyView(chatID).Find(2)
	require.True(t, found)
	require.Equal(t, "45", tx.Amount.String())

	require.Contains(t, mockBot.LastMessage(), "updated")
}

func TestRecordCancel(t *testing.T) {
	b := setupTestBot(t, "http://unused.invalid")
	ctx := context.Background()
	chatID := int64(603)
	signInTestUser(t, b, chatID)

	mockBot := mocks.NewMockBot()
	b.setPendingRecord(chatID, &pendingRecord{Step: recordStepPreview})

	b.handleRecordCallbackCore(ctx, mockBot, callbackUpdate(chatID, 100, "rec_cancel"))

	require.Contains(t, mockBot.LastMessage(), "Cancelled")
	_, stillPending := b.pendingRecord(chatID)
	require.False(t, stillPending)
}

func TestSaveWithoutCategoryBlocked(t *testing.T) {
	b := setupTestBot(t, "http://unused.invalid")
	ctx := context.Background()
	chatID := int64(604)
	signInTestUser(t, b, chatID)

	mockBot := mocks.NewMockBot()
	draft := transactionInputFixture()
	draft.CategoryID = 0
	b.setPendingRecord(chatID, &pendingRecord{Step: recordStepPreview, Draft: draft})

	b.handleRecordCallbackCore(ctx, mockBot, callbackUpdate(chatID, 100, "rec_save"))

	require.Contains(t, mockBot.LastMessage(), "category")
	_, stillPending := b.pendingRecord(chatID)
	require.True(t, stillPending)
}
