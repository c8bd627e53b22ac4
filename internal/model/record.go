package model

import (
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Expense and Income share one shape but live in separate tables.
type Expense struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user"`
	Title       string    `json:"title"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Income struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user"`
	Title       string    `json:"title"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type RecordRequest struct {
	Title       string  `json:"title" binding:"required,notblank"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Category    string  `json:"category" binding:"required,notblank"`
	Date        *Date   `json:"date"`
	Description string  `json:"description"`
}

// UpdateExpenseRequest leaves a field untouched when it is empty.
type UpdateExpenseRequest struct {
	Title       string  `json:"title"`
	Amount      float64 `json:"amount" binding:"omitempty,gt=0"`
	Category    string  `json:"category"`
	Date        *Date   `json:"date"`
	Description string  `json:"description"`
}

type Summary struct {
	Income       float64 `json:"income"`
	TotalExpense float64 `json:"totalExpense"`
	Balance      float64 `json:"balance"`
}

type IncomeSummary struct {
	TotalIncome float64 `json:"totalIncome"`
}

type CategoryTotal struct {
	Category string  `json:"_id"`
	Total    float64 `json:"total"`
}

var ErrInvalidDate = errors.New("date must be YYYY-MM-DD or an RFC 3339 timestamp")

// Date accepts a calendar date as sent by an HTML date input as well as a
// full RFC 3339 timestamp.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	value, err := strconv.Unquote(string(data))
	if err != nil {
		return ErrInvalidDate
	}
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			d.Time = t
			return nil
		}
	}
	return ErrInvalidDate
}
