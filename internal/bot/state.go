package bot

import (
	"github.com/spendify/spendify-bot/internal/api"
	"github.com/spendify/spendify-bot/internal/budget"
)

// authMode distinguishes the two sign-in conversations.
type authMode string

const (
	authModeLogin    authMode = "login"
	authModeRegister authMode = "register"
)

// authStep tracks progress through the email/password prompts.
type authStep int

const (
	authStepEmail authStep = iota
	authStepPassword
	authStepConfirmPassword
)

// pendingAuth is an in-progress login or registration conversation.
type pendingAuth struct {
	Mode     authMode
	Step     authStep
	Email    string
	Password string
}

// recordStep tracks progress through the add-record prompts.
type recordStep int

const (
	recordStepAmount recordStep = iota
	recordStepDate
	recordStepCategory
	recordStepMerchant
	recordStepDescription
	recordStepPreview
)

// pendingRecord is a transaction draft being assembled, either from the
// step-by-step /add flow, a scanned receipt, or an edit of an existing
// transaction. EditingID is zero for new records.
type pendingRecord struct {
	Step         recordStep
	Draft        api.TransactionInput
	CategoryName string
	EditingID    int
	// AwaitingField is set while the preview keyboard waits for typed input
	// for a single field ("amount", "date", "merchant", "description").
	AwaitingField string
	FromReceipt   bool
	Partial       bool
}

// budgetEdit is an open budget editor bound to one message.
type budgetEdit struct {
	Editor    *budget.Editor
	MessageID int
}

func (b *Bot) hasPendingAuth(chatID int64) bool {
	b.pendingAuthMu.RLock()
	defer b.pendingAuthMu.RUnlock()
	_, ok := b.pendingAuth[chatID]
	return ok
}

func (b *Bot) setPendingAuth(chatID int64, p *pendingAuth) {
	b.pendingAuthMu.Lock()
	defer b.pendingAuthMu.Unlock()
	b.pendingAuth[chatID] = p
}

func (b *Bot) getPendingAuth(chatID int64) (*pendingAuth, bool) {
	b.pendingAuthMu.RLock()
	defer b.pendingAuthMu.RUnlock()
	p, ok := b.pendingAuth[chatID]
	return p, ok
}

func (b *Bot) clearPendingAuth(chatID int64) {
	b.pendingAuthMu.Lock()
	defer b.pendingAuthMu.Unlock()
	delete(b.pendingAuth, chatID)
}

func (b *Bot) setPendingRecord(chatID int64, p *pendingRecord) {
	b.pendingRecordsMu.Lock()
	defer b.pendingRecordsMu.Unlock()
	b.pendingRecords[chatID] = p
}

func (b *Bot) pendingRecord(chatID int64) (*pendingRecord, bool) {
	b.pendingRecordsMu.RLock()
	defer b.pendingRecordsMu.RUnlock()
	p, ok := b.pendingRecords[chatID]
	return p, ok
}

func (b *Bot) clearPendingRecord(chatID int64) {
	b.pendingRecordsMu.Lock()
	defer b.pendingRecordsMu.Unlock()
	delete(b.pendingRecords, chatID)
}

func (b *Bot) setBudgetEdit(chatID int64, e *budgetEdit) {
	b.budgetEditorsMu.Lock()
	defer b.budgetEditorsMu.Unlock()
	b.budgetEditors[chatID] = e
}

func (b *Bot) budgetEdit(chatID int64) (*budgetEdit, bool) {
	b.budgetEditorsMu.RLock()
	defer b.budgetEditorsMu.RUnlock()
	e, ok := b.budgetEditors[chatID]
	return e, ok
}

func (b *Bot) clearBudgetEdit(chatID int64) {
	b.budgetEditorsMu.Lock()
	defer b.budgetEditorsMu.Unlock()
	delete(b.budgetEditors, chatID)
}

func (b *Bot) setPendingDate(chatID int64, bound string) {
	b.pendingDatesMu.Lock()
	defer b.pendingDatesMu.Unlock()
	b.pendingDates[chatID] = bound
}

func (b *Bot) pendingDate(chatID int64) (string, bool) {
	b.pendingDatesMu.RLock()
	defer b.pendingDatesMu.RUnlock()
	bound, ok := b.pendingDates[chatID]
	return bound, ok
}

func (b *Bot) clearPendingDate(chatID int64) {
	b.pendingDatesMu.Lock()
	defer b.pendingDatesMu.Unlock()
	delete(b.pendingDates, chatID)
}

// clearChatState drops every pending conversation for a chat. Used on
// logout so state never leaks into the next session.
func (b *Bot) clearChatState(chatID int64) {
	b.clearPendingAuth(chatID)
	b.clearPendingRecord(chatID)
	b.clearBudgetEdit(chatID)
	b.clearPendingDate(chatID)
	b.dropHistoryView(chatID)
}
