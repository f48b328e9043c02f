package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spendify/spendify-bot/internal/bot/mocks"
)

func TestBudgetEditorFlow(t *testing.T) {
	b := setupTestBot(t, "http://unused.invalid")
	ctx := context.Background()
	chatID := int64(700)
	signInTestUser(t, b, chatID)

	mockBot := mocks.NewMockBot()

	b.handleBudgetCore(ctx, mockBot, messageUpdate(chatID, "/budget"))
	require.Contains(t, mockBot.LastMessage(), "$2000")

	edit, ok := b.budgetEdit(chatID)
	require.True(t, ok)
	require.EqualValues(t, 2000, edit.Editor.Slider)

	t.Run("step buttons adjust by 100", func(t *testing.T) {
		b.handleBudgetCallbackCore(ctx, mockBot, callbackUpdate(chatID, edit.MessageID, "budget_inc"))
		require.EqualValues(t, 2100, edit.Editor.Slider)
		require.Contains(t, mockBot.EditedMessages[len(mockBot.EditedMessages)-1].Text, "$2100")

		b.handleBudgetCallbackCore(ctx, mockBot, callbackUpdate(chatID, edit.MessageID, "budget_dec"))
		require.EqualValues(t, 2000, edit.Editor.Slider)
	})

	t.Run("typed below-minimum amount blocks saving", func(t *testing.T) {
		require.True(t, b.handlePendingBudgetInput(ctx, mockBot, messageUpdate(chatID, "150")))
		require.Contains(t, mockBot.EditedMessages[len(mockBot.EditedMessages)-1].Text, "Minimum budget is $500")

		b.handleBudgetCallbackCore(ctx, mockBot, callbackUpdate(chatID, edit.MessageID, "budget_save"))
		require.Contains(t, mockBot.LastMessage(), "valid budget")

		saved, err := b.local.Budget(ctx, chatID)
		require.NoError(t, err)
		require.EqualValues(t, 2000, saved)
	})

	t.Run("valid typed amount saves", func(t *testing.T) {
		require.True(t, b.handlePendingBudgetInput(ctx, mockBot, messageUpdate(chatID, "$2,500")))
		b.handleBudgetCallbackCore(ctx, mockBot, callbackUpdate(chatID, edit.MessageID, "budget_save"))

		require.Contains(t, mockBot.LastMessage(), "$2500")

		saved, err := b.local.Budget(ctx, chatID)
		require.NoError(t, err)
		require.EqualValues(t, 2500, saved)

		_, stillOpen := b.budgetEdit(chatID)
		require.False(t, stillOpen)
	})
}

func TestBudgetCancelLeavesSavedValue(t *testing.T) {
	b := setupTestBot(t, "http://unused.invalid")
	ctx := context.Background()
	chatID := int64(701)
	signInTestUser(t, b, chatID)
	require.NoError(t, b.local.SetBudget(ctx, chatID, 3000))

	mockBot := mocks.NewMockBot()
	b.handleBudgetCore(ctx, mockBot, messageUpdate(chatID, "/budget"))

	edit, ok := b.budgetEdit(chatID)
	require.True(t, ok)
	b.handleBudgetCallbackCore(ctx, mockBot, callbackUpdate(chatID, edit.MessageID, "budget_inc"))
	b.handleBudgetCallbackCore(ctx, mockBot, callbackUpdate(chatID, edit.MessageID, "budget_cancel"))

	saved, err := b.local.Budget(ctx, chatID)
	require.NoError(t, err)
	require.EqualValues(t, 3000, saved)

	_, stillOpen := b.budgetEdit(chatID)
	require.False(t, stillOpen)
}

func TestBudgetCallbackAfterExpiry(t *testing.T) {
	b := setupTestBot(t, "http://unused.invalid")
	ctx := context.Background()
	chatID := int64(702)
	signInTestUser(t, b, chatID)

	mockBot := mocks.NewMockBot()
	b.handleBudgetCallbackCore(ctx, mockBot, callbackUpdate(chatID, 100, "budget_save"))

	require.Contains(t, mockBot.LastMessage(), "expired")
}
