// Package history holds the transaction-history view state: the fetched
// list, its locally derived filtered list, the active date range and
// category selection, and which row is expanded.
package history

import (
	"context"
	"sort"

	"github.com/spendify/spendify-bot/internal/api"
	"github.com/spendify/spendify-bot/internal/models"
)

// PageSize caps how many transactions one fetch returns.
const PageSize = 1000

// Lister fetches transactions from the backend.
type Lister interface {
	Transactions(ctx context.Context, token string, q api.TransactionQuery) ([]models.Transaction, error)
}

// View is one chat's history screen state. It is not safe for concurrent
// use; the bot serializes access per chat.
type View struct {
	All        []models.Transaction
	Filtered   []models.Transaction
	Range      DateRange
	Selection  CategorySelection
	ExpandedID int // 0 = no row expanded
}

// NewView opens on the default 30-day range with no category filter.
func NewView(today models.Date) *View {
	return &View{
		Range:     DefaultRange(today),
		Selection: NewCategorySelection(),
	}
}

// Load fetches the active range from the backend, replaces the full list
// and resets the category selection to "all".
func (v *View) Load(ctx context.Context, client Lister, token string) error {
	txs, err := client.Transactions(ctx, token, api.TransactionQuery{
		StartDate: v.Range.Start,
		EndDate:   v.Range.End,
		Size:      PageSize,
		Sort:      api.SortDateDesc,
	})
	if err != nil {
		return err
	}
	v.SetTransactions(txs)
	return nil
}

// SetTransactions replaces the full list, re-sorts it newest first, resets
// the selection to the sentinel and recomputes the filtered list.
func (v *View) SetTransactions(txs []models.Transaction) {
	sorted := make([]models.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TransactionDate.After(sorted[j].TransactionDate)
	})

	v.All = sorted
	v.Selection.Reset()
	v.applyFilter()
}

// applyFilter recomputes Filtered from All and the current selection.
// With the sentinel selected the filtered list equals the full list.
func (v *View) applyFilter() {
	if v.Selection.All() {
		v.Filtered = append([]models.Transaction(nil), v.All...)
		return
	}

	filtered := make([]models.Transaction, 0, len(v.All))
	for _, tx := range v.All {
		if v.Selection.Has(tx.CategoryID) {
			filtered = append(filtered, tx)
		}
	}
	v.Filtered = filtered
}

// ToggleCategory flips a filter chip and refilters.
func (v *View) ToggleCategory(id int) {
	v.Selection.Toggle(id)
	v.applyFilter()
}

// Categories derives the filter chips from the loaded list: distinct
// id→name pairs in first-seen order. They are not fetched separately.
func (v *View) Categories() []models.Category {
	seen := make(map[int]struct{}, len(v.All))
	var categories []models.Category
	for _, tx := range v.All {
		if _, ok := seen[tx.CategoryID]; ok {
			continue
		}
		seen[tx.CategoryID] = struct{}{}
		categories = append(categories, models.Category{ID: tx.CategoryID, Name: tx.CategoryName})
	}
	return categories
}

// SetStartDate applies the clamped start-date edit. The caller reloads on
// success; on error the range is unchanged.
func (v *View) SetStartDate(d models.Date) error {
	next, err := v.Range.WithStart(d)
	if err != nil {
		return err
	}
	v.Range = next
	return nil
}

// SetEndDate applies the clamped end-date edit.
func (v *View) SetEndDate(d, today models.Date) error {
	next, err := v.Range.WithEnd(d, today)
	if err != nil {
		return err
	}
	v.Range = next
	return nil
}

// ToggleExpanded expands the row, or collapses it if it was already
// expanded. At most one row is expanded at a time.
func (v *View) ToggleExpanded(id int) {
	if v.ExpandedID == id {
		v.ExpandedID = 0
		return
	}
	v.ExpandedID = id
}

// Find returns the loaded transaction with the given ID.
func (v *View) Find(id int) (models.Transaction, bool) {
	for _, tx := range v.All {
		if tx.ID == id {
			return tx, true
		}
	}
	return models.Transaction{}, false
}

// ApplyUpdate replaces the matching transaction in place in the full list,
// preserving the order of all other items, and refilters.
func (v *View) ApplyUpdate(updated models.Transaction) {
	for i, tx := range v.All {
		if tx.ID == updated.ID {
			v.All[i] = updated
			break
		}
	}
	v.applyFilter()
}

// Remove drops the transaction from both the full and filtered lists.
func (v *View) Remove(id int) {
	v.All = removeByID(v.All, id)
	v.Filtered = removeByID(v.Filtered, id)
	if v.ExpandedID == id {
		v.ExpandedID = 0
	}
}

func removeByID(txs []models.Transaction, id int) []models.Transaction {
	out := txs[:0]
	for _, tx := range txs {
		if tx.ID != id {
			out = append(out, tx)
		}
	}
	return out
}
