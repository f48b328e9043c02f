// Package budget implements the budget-alarm editor: a single monthly
// threshold edited either by typed text or by stepped +/- controls, kept in
// sync. Out-of-range text stays visible so the user can keep typing, but
// blocks saving until corrected.
package budget

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spendify/spendify-bot/internal/models"
)

// Editor is the in-progress budget edit for one chat.
type Editor struct {
	// Text is the raw digits the user typed, possibly out of range.
	Text string
	// Slider is the stepped control's value, always within range.
	Slider int64
	// Err is the range error currently shown, empty when the text is valid.
	Err string
}

// NewEditor starts from the saved budget value.
func NewEditor(saved int64) *Editor {
	return &Editor{
		Text:   strconv.FormatInt(saved, 10),
		Slider: saved,
	}
}

// SetText applies a typed edit. Non-digits are stripped; out-of-range
// values are kept visible with a range error while the stepped control is
// clamped into range.
func (e *Editor) SetText(input string) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, input)

	if digits == "" {
		e.Text = ""
		e.Slider = models.MinBudget
		e.Err = ""
		return
	}

	value, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		e.Text = ""
		e.Slider = models.MinBudget
		e.Err = ""
		return
	}

	switch {
	case value < models.MinBudget:
		e.Err = fmt.Sprintf("Minimum budget is $%d", models.MinBudget)
		e.Text = digits
		e.Slider = models.MinBudget
	case value > models.MaxBudget:
		e.Err = fmt.Sprintf("Maximum budget is $%d", models.MaxBudget)
		e.Text = digits
		e.Slider = models.MaxBudget
	default:
		e.Err = ""
		e.Text = digits
		e.Slider = value
	}
}

// SetSlider applies a stepped-control edit: the value is clamped into range,
// snapped to the step and mirrored into the text, clearing any error.
func (e *Editor) SetSlider(value int64) {
	if value < models.MinBudget {
		value = models.MinBudget
	}
	if value > models.MaxBudget {
		value = models.MaxBudget
	}
	value = (value + models.BudgetStep/2) / models.BudgetStep * models.BudgetStep
	if value > models.MaxBudget {
		value = models.MaxBudget
	}

	e.Slider = value
	e.Text = strconv.FormatInt(value, 10)
	e.Err = ""
}

// Step nudges the stepped control by n steps.
func (e *Editor) Step(n int64) {
	e.SetSlider(e.Slider + n*models.BudgetStep)
}

// CanSave reports whether the current text parses to an in-range value.
func (e *Editor) CanSave() bool {
	_, err := e.Value()
	return err == nil
}

// Value validates the typed text and returns the budget to persist.
func (e *Editor) Value() (int64, error) {
	value, err := strconv.ParseInt(e.Text, 10, 64)
	if err != nil || value < models.MinBudget || value > models.MaxBudget {
		return 0, fmt.Errorf("please enter a valid budget between $%d and $%d",
			models.MinBudget, models.MaxBudget)
	}
	return value, nil
}
