// Package models defines the domain entities shared across the app.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Budget bounds for the monthly budget alarm, in whole dollars.
const (
	MinBudget     = 500
	MaxBudget     = 5000
	BudgetStep    = 100
	DefaultBudget = 2000
)

// AllCategories is the sentinel category ID meaning "no category filter".
const AllCategories = -1

// User is the profile returned by the backend for the signed-in account.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// DisplayName is the part of the email before the @, or "User" as a fallback.
func (u *User) DisplayName() string {
	if u == nil || u.Email == "" {
		return "User"
	}
	name, _, _ := strings.Cut(u.Email, "@")
	if name == "" {
		return "User"
	}
	return name
}

// Session holds the credentials and profile for one signed-in chat.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"userData,omitempty"`
}

// Category is a backend-owned transaction tag.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Transaction is a single expense record. The backend assigns IDs; the
// client only ever creates, edits or deletes via explicit API calls.
type Transaction struct {
	ID              int             `json:"id"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionDate Date            `json:"transactionDate"`
	CategoryID      int             `json:"categoryId"`
	CategoryName    string          `json:"categoryName"`
	Merchant        string          `json:"merchant"`
	Description     string          `json:"description,omitempty"`
}

const dateLayout = "2006-01-02"

// Date is a calendar date without a time component, serialized as
// "yyyy-MM-dd" on the wire.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a "yyyy-MM-dd" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return d.Time().After(other.Time())
}

// DaysUntil counts whole days from d to other (negative if other is earlier).
func (d Date) DaysUntil(other Date) int {
	return int(other.Time().Sub(d.Time()) / (24 * time.Hour))
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// AddMonths returns the date n months after d, normalized by time.AddDate.
func (d Date) AddMonths(n int) Date {
	return DateOf(d.Time().AddDate(0, n, 0))
}

// MarshalJSON encodes the date as a quoted "yyyy-MM-dd" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a quoted "yyyy-MM-dd" string. Timestamps with a
// time component are accepted and truncated to their date.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
