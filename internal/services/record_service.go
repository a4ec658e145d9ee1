package services

import (
	"context"
	"fmt"
	"strconv"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// RecordStore is the persistence surface the record service needs.
// *storage.Repository satisfies it.
type RecordStore interface {
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, owner string, id int64) error
	ListExpenses(ctx context.Context, owner string, rng core.DateRange) ([]core.Expense, error)

	CreateIncome(ctx context.Context, i core.Income) (core.Income, error)
	UpdateIncome(ctx context.Context, i core.Income) error
	DeleteIncome(ctx context.Context, owner string, id int64) error
	ListIncome(ctx context.Context, owner string, rng core.DateRange) ([]core.Income, error)
}

// RecordService validates and applies record mutations and computes
// dashboard summaries. Summaries are cached per owner and window; any
// mutation drops every cached window of that owner.
type RecordService struct {
	store  RecordStore
	cache  *cache.LRUCache[core.Summary]
	logger *log.Logger
}

func NewRecordService(store RecordStore, summaryCache *cache.LRUCache[core.Summary], logger *log.Logger) *RecordService {
	return &RecordService{
		store:  store,
		cache:  summaryCache,
		logger: logger.WithComponent("records"),
	}
}

func (s *RecordService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}
	created, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, err
	}
	s.invalidate(e.Owner)
	s.logger.InfoContext(ctx, "expense created", "id", created.ID, "owner", created.Owner, "amount_cents", created.Amount.Cents)
	return created, nil
}

func (s *RecordService) UpdateExpense(ctx context.Context, e core.Expense) error {
	if e.ID <= 0 {
		return fmt.Errorf("%w: missing id", core.ErrInvalidInput)
	}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}
	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return err
	}
	s.invalidate(e.Owner)
	s.logger.InfoContext(ctx, "expense updated", "id", e.ID, "owner", e.Owner)
	return nil
}

func (s *RecordService) DeleteExpense(ctx context.Context, owner string, id int64) error {
	if err := s.store.DeleteExpense(ctx, owner, id); err != nil {
		return err
	}
	s.invalidate(owner)
	s.logger.InfoContext(ctx, "expense deleted", "id", id, "owner", owner)
	return nil
}

func (s *RecordService) ListExpenses(ctx context.Context, owner string, rng core.DateRange) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx, owner, rng)
}

func (s *RecordService) CreateIncome(ctx context.Context, i core.Income) (core.Income, error) {
	if err := i.Validate(); err != nil {
		return core.Income{}, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}
	created, err := s.store.CreateIncome(ctx, i)
	if err != nil {
		return core.Income{}, err
	}
	s.invalidate(i.Owner)
	s.logger.InfoContext(ctx, "income created", "id", created.ID, "owner", created.Owner, "amount_cents", created.Amount.Cents)
	return created, nil
}

func (s *RecordService) UpdateIncome(ctx context.Context, i core.Income) error {
	if i.ID <= 0 {
		return fmt.Errorf("%w: missing id", core.ErrInvalidInput)
	}
	if err := i.Validate(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}
	if err := s.store.UpdateIncome(ctx, i); err != nil {
		return err
	}
	s.invalidate(i.Owner)
	s.logger.InfoContext(ctx, "income updated", "id", i.ID, "owner", i.Owner)
	return nil
}

func (s *RecordService) DeleteIncome(ctx context.Context, owner string, id int64) error {
	if err := s.store.DeleteIncome(ctx, owner, id); err != nil {
		return err
	}
	s.invalidate(owner)
	s.logger.InfoContext(ctx, "income deleted", "id", id, "owner", owner)
	return nil
}

func (s *RecordService) ListIncome(ctx context.Context, owner string, rng core.DateRange) ([]core.Income, error) {
	return s.store.ListIncome(ctx, owner, rng)
}

// Summary computes the owner's dashboard aggregate. month and year come
// together or not at all; a lone one is an invalid filter. Without a
// window the summary spans the owner's whole history.
func (s *RecordService) Summary(ctx context.Context, owner string, month, year *int) (core.Summary, error) {
	if (month == nil) != (year == nil) {
		return core.Summary{}, fmt.Errorf("%w: month and year must be provided together", core.ErrInvalidFilter)
	}

	var rng core.DateRange
	if month != nil {
		var err error
		rng, err = core.MonthRange(*year, *month)
		if err != nil {
			return core.Summary{}, err
		}
	}

	key := summaryKey(owner, month, year)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached, nil
		}
	}

	expenses, err := s.store.ListExpenses(ctx, owner, rng)
	if err != nil {
		return core.Summary{}, err
	}
	incomes, err := s.store.ListIncome(ctx, owner, rng)
	if err != nil {
		return core.Summary{}, err
	}

	summary := core.ComputeSummary(expenses, incomes)
	summary.Month = month
	summary.Year = year

	if s.cache != nil {
		s.cache.Set(key, summary)
	}
	return summary, nil
}

func (s *RecordService) invalidate(owner string) {
	if s.cache != nil {
		s.cache.DeletePrefix(owner + "|")
	}
}

func summaryKey(owner string, month, year *int) string {
	m, y := "", ""
	if month != nil {
		m = strconv.Itoa(*month)
	}
	if year != nil {
		y = strconv.Itoa(*year)
	}
	return owner + "|" + y + "|" + m
}
