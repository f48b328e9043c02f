package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"

	"github.com/spendify/spendify-bot/internal/bot/mocks"
)

func TestEscapeHTML(t *testing.T) {
	require.Equal(t, "a &amp;&lt;b&gt; c", escapeHTML("a &<b> c"))
	require.Equal(t, "plain", escapeHTML("plain"))
}

func TestHandleStartCore(t *testing.T) {
	b := setupTestBot(t, "http://unused.invalid")
	ctx := context.Background()

	t.Run("nil message returns early", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleStartCore(ctx, mockBot, &tgmodels.Update{})
		require.Empty(t, mockBot.SentMessages)
	})

	t.Run("greets unauthenticated users with login hints", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleStartCore(ctx, mockBot, messageUpdate(1200, "/start"))

		text := mockBot.LastMessage()
		require.Contains(t, text, "Welcome, Test")
		require.Contains(t, text, "/login")
		require.Contains(t, text, "/register")
	})
}

func TestHandleStartCoreSignedInShowsHome(t *testing.T) {
	srv := emptyTransactionsBackend(t)
	b := setupTestBot(t, srv.URL)
	ctx := context.Background()
	chatID := int64(1201)
	signInTestUser(t, b, chatID)

	mockBot := mocks.NewMockBot()
	b.handleStartCore(ctx, mockBot, messageUpdate(chatID, "/start"))

	require.Contains(t, mockBot.LastMessage(), "Spent")
}

func TestHandleHelpCore(t *testing.T) {
	b := setupTestBot(t, "http://unused.invalid")
	ctx := context.Background()

	mockBot := mocks.NewMockBot()
	b.handleHelpCore(ctx, mockBot, messageUpdate(1202, "/help"))

	text := mockBot.LastMessage()
	for _, cmd := range []string{"/add", "/history", "/home", "/overview", "/budget", "/logout"} {
		require.Contains(t, text, cmd)
	}
}

func TestHandleMenuCore(t *testing.T) {
	b := setupTestBot(t, "http://unused.invalid")
	ctx := context.Background()
	chatID := int64(1203)
	signInTestUser(t, b, chatID)

	mockBot := mocks.NewMockBot()
	b.handleMenuCore(ctx, mockBot, messageUpdate(chatID, "/menu"))

	text := mockBot.LastMessage()
	require.Contains(t, text, "test@example.com")
	require.Contains(t, text, "/history")
}

func TestShowHomeCore(t *testing.T) {
	ctx := context.Background()

	t.Run("under budget shows remaining amount", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "2026-08-01", r.URL.Query().Get("startDate"))
			require.Equal(t, "2026-08-31", r.URL.Query().Get("endDate"))
			_ = json.NewEncoder(w).Encode(map[string]any{"content": []any{
				map[string]any{"id": 1, "amount": 750.0, "transactionDate": "2026-08-05", "categoryId": 1, "categoryName": "Food"},
			}})
		}))
		defer srv.Close()

		b := setupTestBot(t, srv.URL)
		chatID := int64(1204)
		signInTestUser(t, b, chatID)

		mockBot := mocks.NewMockBot()
		b.showHomeCore(ctx, mockBot, chatID)

		text := mockBot.LastMessage()
		require.Contains(t, text, "August 2026")
		require.Contains(t, text, "$750.00")
		require.Contains(t, text, "$2000")
		require.Contains(t, text, "$1250.00 left")
	})

	t.Run("over budget shows a warning", func(t *testing.T) {
		srv := spendingBackend(t, 2600)
		b := setupTestBot(t, srv.URL)
		chatID := int64(1205)
		signInTestUser(t, b, chatID)

		mockBot := mocks.NewMockBot()
		b.showHomeCore(ctx, mockBot, chatID)

		require.Contains(t, mockBot.LastMessage(), "Over budget by $600.00")
	})

	t.Run("no session redirects to login", func(t *testing.T) {
		b := setupTestBot(t, "http://unused.invalid")
		mockBot := mocks.NewMockBot()
		b.showHomeCore(ctx, mockBot, 1206)

		require.Contains(t, mockBot.LastMessage(), "/login")
	})
}

func TestRenderProgressBar(t *testing.T) {
	require.Equal(t, "░░░░░░░░░░", renderProgressBar(0))
	require.Equal(t, "▓▓▓▓▓░░░░░", renderProgressBar(50))
	require.Equal(t, "▓▓▓▓▓▓▓▓▓▓", renderProgressBar(100))
	require.Equal(t, "▓▓▓▓▓▓▓▓▓▓", renderProgressBar(130))
}
