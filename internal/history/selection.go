package history

import (
	"sort"

	"github.com/spendify/spendify-bot/internal/models"
)

// CategorySelection is the set of category IDs the history list is filtered
// by. The models.AllCategories sentinel means "no filter"; the set is never
// empty.
type CategorySelection map[int]struct{}

// NewCategorySelection starts with only the sentinel selected.
func NewCategorySelection() CategorySelection {
	return CategorySelection{models.AllCategories: {}}
}

// All reports whether the sentinel is selected.
func (s CategorySelection) All() bool {
	_, ok := s[models.AllCategories]
	return ok
}

// Has reports whether a category ID is selected.
func (s CategorySelection) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// Toggle flips a category chip. Selecting the sentinel clears everything
// else; selecting a concrete category drops the sentinel; deselecting the
// last concrete category restores the sentinel.
func (s CategorySelection) Toggle(id int) {
	if id == models.AllCategories {
		for k := range s {
			delete(s, k)
		}
		s[models.AllCategories] = struct{}{}
		return
	}

	delete(s, models.AllCategories)
	if _, ok := s[id]; ok {
		delete(s, id)
		if len(s) == 0 {
			s[models.AllCategories] = struct{}{}
		}
	} else {
		s[id] = struct{}{}
	}
}

// Reset returns the selection to the sentinel-only state.
func (s CategorySelection) Reset() {
	for k := range s {
		delete(s, k)
	}
	s[models.AllCategories] = struct{}{}
}

// IDs lists the selected category IDs in ascending order.
func (s CategorySelection) IDs() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
