package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout used on disk and in the CLI.
const DateLayout = "2006-01-02"

// UnresolvedTagName labels amounts whose tag id matches no known tag.
const UnresolvedTagName = "Other"

const (
	Income  Type = "INCOME"
	Expense Type = "EXPENSE"
)

const (
	RecurrenceNone Recurrence = ""
	Daily          Recurrence = "DAILY"
	Weekly         Recurrence = "WEEKLY"
	Monthly        Recurrence = "MONTHLY"
	Yearly         Recurrence = "YEARLY"
)

type (
	// Type tells whether a transaction is money in or money out.
	Type string

	// Recurrence is a descriptive label; it never schedules future transactions.
	Recurrence string

	// Date is a calendar date stored as UTC midnight.
	Date struct {
		time.Time
	}

	// DateRange is a closed interval; a zero bound means open on that side.
	DateRange struct {
		start Date
		end   Date
	}

	// Tag is a node of the two-level tag hierarchy. An empty ParentID marks a root.
	Tag struct {
		ID       string
		Name     string
		ParentID string
	}

	// Transaction is a recorded income or expense. Tags are held by id and
	// resolved against the tag registry when read.
	Transaction struct {
		ID          string
		Amount      Money
		Date        Date
		Description string
		Type        Type
		TagIDs      []string
		Recurrence  Recurrence
	}
)

var (
	ErrEmptyID           = errors.New("empty id")
	ErrEmptyName         = errors.New("empty name")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrZeroDate          = errors.New("date cannot be zero")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidDateRange  = errors.New("start date cannot be after end date")
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrInvalidRecurrence = errors.New("invalid recurrence")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses an ISO-8601 calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true if the date is zero (used for optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// NewDateRange builds a range. Either bound may be the zero Date to leave
// that side open. Fails when both are set and start is after end.
func NewDateRange(start, end Date) (DateRange, error) {
	if !start.IsEmpty() && !end.IsEmpty() && start.After(end.Time) {
		return DateRange{}, ErrInvalidDateRange
	}
	return DateRange{start: start, end: end}, nil
}

// Start returns the lower bound and whether it is set.
func (r DateRange) Start() (Date, bool) {
	return r.start, !r.start.IsEmpty()
}

// End returns the upper bound and whether it is set.
func (r DateRange) End() (Date, bool) {
	return r.end, !r.end.IsEmpty()
}

// Contains reports whether d lies within the range, bounds included.
func (r DateRange) Contains(d Date) bool {
	if !r.start.IsEmpty() && d.Before(r.start.Time) {
		return false
	}
	if !r.end.IsEmpty() && d.After(r.end.Time) {
		return false
	}
	return true
}

// ParseType accepts INCOME or EXPENSE, case-insensitively.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToUpper(strings.TrimSpace(s))); t {
	case Income, Expense:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

func (t Type) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidType, string(t))
	}
}

// ParseRecurrence accepts DAILY, WEEKLY, MONTHLY, YEARLY or the empty string.
func ParseRecurrence(s string) (Recurrence, error) {
	r := Recurrence(strings.ToUpper(strings.TrimSpace(s)))
	if err := r.Validate(); err != nil {
		return RecurrenceNone, err
	}
	return r, nil
}

func (r Recurrence) Validate() error {
	switch r {
	case RecurrenceNone, Daily, Weekly, Monthly, Yearly:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRecurrence, string(r))
	}
}

// IsRoot reports whether the tag has no parent.
func (t Tag) IsRoot() bool {
	return t.ParentID == ""
}

func (t Tag) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (t Tag) String() string {
	if t.IsRoot() {
		return t.Name
	}
	return t.Name + " (child of " + t.ParentID + ")"
}

// NewTransaction validates the fields and returns a transaction owning its
// own copy of tagIDs.
func NewTransaction(id string, amount Money, date Date, description string, typ Type, tagIDs []string, rec Recurrence) (Transaction, error) {
	tx := Transaction{
		ID:          id,
		Amount:      amount,
		Date:        date,
		Description: description,
		Type:        typ,
		TagIDs:      append([]string(nil), tagIDs...),
		Recurrence:  rec,
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	for _, id := range t.TagIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("tag reference: %w", ErrEmptyID)
		}
	}
	return t.Recurrence.Validate()
}

// Clone returns a copy that shares no slice with t.
func (t Transaction) Clone() Transaction {
	t.TagIDs = append([]string(nil), t.TagIDs...)
	return t
}

// HasTag reports whether the transaction carries tagID directly.
func (t Transaction) HasTag(tagID string) bool {
	for _, id := range t.TagIDs {
		if id == tagID {
			return true
		}
	}
	return false
}

// IsRecurring reports whether the transaction carries a recurrence pattern.
func (t Transaction) IsRecurring() bool {
	return t.Recurrence != RecurrenceNone
}

// Signed returns the amount with expenses negated.
func (t Transaction) Signed() Money {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}
