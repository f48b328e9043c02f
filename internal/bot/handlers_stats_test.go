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

func TestHandleStatsCore(t *testing.T) {
	ctx := context.Background()

	t.Run("renders summary and daily breakdown", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /analytics/summary", func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "Bearer test-access-token", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"totalSpending":    412.75,
				"transactionCount": 31,
				"topCategory":      "Food",
			})
		})
		mux.HandleFunc("GET /analytics/daily", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"date": "2026-08-27", "total": 12.50},
				{"date": "2026-08-28", "total": 30.00},
			})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		b := setupTestBot(t, srv.URL)
		chatID := int64(1000)
		signInTestUser(t, b, chatID)

		mockBot := mocks.NewMockBot()
		b.handleStatsCore(ctx, mockBot, messageUpdate(chatID, "/stats"))

		text := mockBot.LastMessage()
		require.Contains(t, text, "$412.75")
		require.Contains(t, text, "31")
		require.Contains(t, text, "Food")
		require.Contains(t, text, "Aug 27")
		require.Contains(t, text, "$30.00")
	})

	t.Run("backend failure reports an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		b := setupTestBot(t, srv.URL)
		chatID := int64(1001)
		signInTestUser(t, b, chatID)

		mockBot := mocks.NewMockBot()
		b.handleStatsCore(ctx, mockBot, messageUpdate(chatID, "/stats"))

		require.Contains(t, mockBot.LastMessage(), "Couldn't load your stats")
	})
}
