package core

import (
	"errors"
	"strings"
)

type (
	// Expense is a single spending record owned by one user.
	Expense struct {
		ID          int64
		Owner       string // external identity identifier
		Category    string
		Subcategory string
		Amount      Money
		Date        Date
	}

	// Income is a single earning record owned by one user.
	Income struct {
		ID     int64
		Owner  string
		Source string
		Amount Money
		Date   Date
	}

	// User mirrors an account at the external identity provider.
	// ExternalID is the sole join key between identity and local data.
	User struct {
		ID         int64
		ExternalID string
		Name       string
		Email      string
	}

	Money struct {
		Cents int64
	}
)

var (
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrNotFound covers both "record does not exist" and "record belongs to
	// another owner" so that existence of other users' records never leaks.
	ErrNotFound       = errors.New("record not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidFilter  = errors.New("invalid filter")
	ErrInvalidPayload = errors.New("invalid payload")

	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyOwner       = errors.New("empty owner")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptySubcategory = errors.New("empty subcategory")
	ErrEmptySource      = errors.New("empty source")
)

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Owner) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(e.Subcategory) == "" {
		return ErrEmptySubcategory
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return e.Date.Validate()
}

func (i Income) Validate() error {
	if strings.TrimSpace(i.Owner) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(i.Source) == "" {
		return ErrEmptySource
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	return i.Date.Validate()
}

func (u User) Validate() error {
	if strings.TrimSpace(u.ExternalID) == "" {
		return ErrEmptyOwner
	}
	return nil
}
