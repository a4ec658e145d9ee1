package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// recordPayload is the create/update body for both record types.
// Amount stays raw so both JSON numbers and numeric strings parse
// through the same decimal path.
type recordPayload struct {
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory"`
	Source      string          `json:"source"`
	Amount      json.RawMessage `json:"amount"`
	Date        string          `json:"date"`
}

const maxBodyBytes = 1 << 20 // 1 MiB

func decodePayload(r *http.Request) (recordPayload, error) {
	var p recordPayload
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return p, fmt.Errorf("%w: read body", core.ErrInvalidInput)
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return p, fmt.Errorf("%w: malformed JSON", core.ErrInvalidInput)
	}
	return p, nil
}

// parseAmount accepts 12.34, "12.34" and "12,34" and rejects anything
// that is not a positive decimal.
func parseAmount(raw json.RawMessage) (core.Money, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return core.Money{}, fmt.Errorf("%w: missing amount", core.ErrInvalidInput)
	}
	if strings.HasPrefix(s, `"`) {
		var unquoted string
		if err := json.Unmarshal(raw, &unquoted); err != nil {
			return core.Money{}, fmt.Errorf("%w: invalid amount", core.ErrInvalidInput)
		}
		s = unquoted
	}
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, fmt.Errorf("%w: invalid amount", core.ErrInvalidInput)
	}
	return core.Money{Cents: cents}, nil
}

func parseDate(s string) (core.Date, error) {
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: invalid date", core.ErrInvalidInput)
	}
	return d, nil
}

func (p recordPayload) toExpense(owner string, id int64) (core.Expense, error) {
	amount, err := parseAmount(p.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	date, err := parseDate(p.Date)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		ID:          id,
		Owner:       owner,
		Category:    strings.TrimSpace(p.Category),
		Subcategory: strings.TrimSpace(p.Subcategory),
		Amount:      amount,
		Date:        date,
	}, nil
}

func (p recordPayload) toIncome(owner string, id int64) (core.Income, error) {
	amount, err := parseAmount(p.Amount)
	if err != nil {
		return core.Income{}, err
	}
	date, err := parseDate(p.Date)
	if err != nil {
		return core.Income{}, err
	}
	return core.Income{
		ID:     id,
		Owner:  owner,
		Source: strings.TrimSpace(p.Source),
		Amount: amount,
		Date:   date,
	}, nil
}

// pathID extracts the {id} path segment. Non-numeric IDs read as a
// missing record, not a client error, matching the ownership conflation.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ErrNotFound
	}
	return id, nil
}

// monthYearFilter reads the optional month/year pair from the query.
// Unparsable values are invalid filters rather than silently ignored.
func monthYearFilter(r *http.Request) (month, year *int, err error) {
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		m, convErr := strconv.Atoi(v)
		if convErr != nil {
			return nil, nil, fmt.Errorf("%w: month must be a number", core.ErrInvalidFilter)
		}
		month = &m
	}
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, convErr := strconv.Atoi(v)
		if convErr != nil {
			return nil, nil, fmt.Errorf("%w: year must be a number", core.ErrInvalidFilter)
		}
		year = &y
	}
	return month, year, nil
}

// rangeFilter turns the optional month/year pair into a date range for
// list endpoints.
func rangeFilter(r *http.Request) (core.DateRange, error) {
	month, year, err := monthYearFilter(r)
	if err != nil {
		return core.DateRange{}, err
	}
	if (month == nil) != (year == nil) {
		return core.DateRange{}, fmt.Errorf("%w: month and year must be provided together", core.ErrInvalidFilter)
	}
	if month == nil {
		return core.DateRange{}, nil
	}
	return core.MonthRange(*year, *month)
}
