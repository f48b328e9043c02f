package history

import (
	"errors"

	"github.com/spendify/spendify-bot/internal/models"
)

// MaxRangeDays is the widest date range the backend may be queried for.
const MaxRangeDays = 90

// DefaultRangeDays is the initial lookback when the history view opens.
const DefaultRangeDays = 30

// ErrRangeTooLong rejects edits that would stretch the range past
// MaxRangeDays. The edit is blocked, never silently corrected.
var ErrRangeTooLong = errors.New("date range cannot exceed 90 days")

// DateRange bounds which transactions are fetched, inclusive on both ends.
type DateRange struct {
	Start models.Date
	End   models.Date
}

// DefaultRange is the last 30 days ending today.
func DefaultRange(today models.Date) DateRange {
	return DateRange{Start: today.AddDays(-DefaultRangeDays), End: today}
}

// Validate checks the range invariants: end >= start and span <= 90 days.
func (r DateRange) Validate() error {
	days := r.Start.DaysUntil(r.End)
	if days < 0 {
		return errors.New("end date cannot precede start date")
	}
	if days > MaxRangeDays {
		return ErrRangeTooLong
	}
	return nil
}

// WithStart moves the start date. The new date is clamped to not exceed the
// current end; a resulting span over 90 days is an error and leaves the
// range unchanged.
func (r DateRange) WithStart(d models.Date) (DateRange, error) {
	if d.After(r.End) {
		d = r.End
	}
	next := DateRange{Start: d, End: r.End}
	if err := next.Validate(); err != nil {
		return r, err
	}
	return next, nil
}

// WithEnd moves the end date. The new date is clamped to not precede the
// current start and not exceed today; a resulting span over 90 days is an
// error and leaves the range unchanged.
func (r DateRange) WithEnd(d, today models.Date) (DateRange, error) {
	if d.Before(r.Start) {
		d = r.Start
	}
	if d.After(today) {
		d = today
	}
	next := DateRange{Start: r.Start, End: d}
	if err := next.Validate(); err != nil {
		return r, err
	}
	return next, nil
}
