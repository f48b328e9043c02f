package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/spendify/spendify-bot/internal/api"
	"github.com/spendify/spendify-bot/internal/logger"
)

// maxReceiptBytes caps how much of a photo download is read.
const maxReceiptBytes = 20 << 20

var photoDownloadClient = &http.Client{Timeout: 30 * time.Second}

// handlePhoto handles photo messages for receipt OCR.
func (b *Bot) handlePhoto(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handlePhotoCore(ctx, tgBot, update)
}

// handlePhotoCore is the testable implementation of handlePhoto.
func (b *Bot) handlePhotoCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil || len(update.Message.Photo) == 0 {
		return
	}

	chatID := update.Message.Chat.ID

	token, err := b.token(chatID)
	if err != nil {
		b.redirectToLogin(ctx, tg, chatID)
		return
	}

	largestPhoto := update.Message.Photo[len(update.Message.Photo)-1]

	logger.Log.Info().
		Str("chat_hash", logger.HashChatID(chatID)).
		Str("file_id", largestPhoto.FileID).
		Int("width", largestPhoto.Width).
		Int("height", largestPhoto.Height).
		Msg("Received receipt photo")

	_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "📷 Processing receipt...",
	})

	imageBytes, err := b.downloadPhoto(ctx, tg, largestPhoto.FileID)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to download photo")
		b.sendText(ctx, tg, chatID, "❌ Failed to download photo. Please try again.")
		return
	}

	logger.Log.Debug().
		Str("chat_hash", logger.HashChatID(chatID)).
		Int("size_bytes", len(imageBytes)).
		Msg("Photo downloaded")

	receipt, err := b.api.ProcessReceipt(ctx, token, imageBytes, "receipt.jpg")
	if err != nil {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to process receipt")
		b.sendText(ctx, tg, chatID, "❌ Could not read this receipt. Please add the record manually with /add.")
		return
	}

	isPartial := receipt.IsPartial()

	logger.Log.Info().
		Str("chat_hash", logger.HashChatID(chatID)).
		Str("amount", receipt.Amount.String()).
		Str("merchant", receipt.Merchant).
		Str("category", receipt.CategoryName).
		Bool("partial", isPartial).
		Msg("Receipt processed")

	draft := receiptDraft(receipt)
	if draft.Draft.TransactionDate.IsZero() {
		draft.Draft.TransactionDate = b.today()
	}

	b.setPendingRecord(chatID, draft)
	b.showRecordPreview(ctx, tg, chatID, draft)
}

// receiptDraft maps an OCR result onto a record draft that opens on the
// preview step.
func receiptDraft(receipt *api.ReceiptData) *pendingRecord {
	return &pendingRecord{
		Step:         recordStepPreview,
		FromReceipt:  true,
		Partial:      receipt.IsPartial(),
		CategoryName: receipt.CategoryName,
		Draft: api.TransactionInput{
			Amount:          receipt.Amount,
			TransactionDate: receipt.TransactionDate,
			Merchant:        receipt.Merchant,
			CategoryID:      receipt.CategoryID,
		},
	}
}

// downloadPhoto fetches a Telegram file's bytes by file ID.
func (b *Bot) downloadPhoto(ctx context.Context, tg TelegramAPI, fileID string) ([]byte, error) {
	file, err := tg.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	link := tg.FileDownloadLink(file)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := photoDownloadClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected download status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReceiptBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read file body: %w", err)
	}
	return data, nil
}
