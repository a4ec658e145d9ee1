package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// Repository is the SQLite-backed record store. Every query that reads
// or mutates records carries the owner in its WHERE clause; there is no
// unscoped access path.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateExpense inserts a record and returns it with the assigned ID.
func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (owner_id, category, subcategory, amount_cents, date) VALUES (?, ?, ?, ?, ?)`,
		e.Owner, e.Category, e.Subcategory, e.Amount.Cents, e.Date.String())
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense insert id: %w", err)
	}
	e.ID = id
	return e, nil
}

// UpdateExpense replaces all mutable fields of the record. The owner
// check happens in the same statement; zero affected rows means the
// record does not exist or belongs to someone else.
func (r *Repository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET category = ?, subcategory = ?, amount_cents = ?, date = ? WHERE id = ? AND owner_id = ?`,
		e.Category, e.Subcategory, e.Amount.Cents, e.Date.String(), e.ID, e.Owner)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return rowsAffectedOrNotFound(res, "update expense")
}

// DeleteExpense removes the record if it belongs to the owner.
func (r *Repository) DeleteExpense(ctx context.Context, owner string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND owner_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return rowsAffectedOrNotFound(res, "delete expense")
}

// ListExpenses returns the owner's expenses ordered by date ascending.
// A non-zero range restricts to [Start, End).
func (r *Repository) ListExpenses(ctx context.Context, owner string, rng core.DateRange) ([]core.Expense, error) {
	query := `SELECT id, owner_id, category, subcategory, amount_cents, date FROM expenses WHERE owner_id = ?`
	args := []any{owner}
	if !rng.IsZero() {
		query += ` AND date >= ? AND date < ?`
		args = append(args, rng.Start.String(), rng.End.String())
	}
	query += ` ORDER BY date ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var (
			e       core.Expense
			cents   int64
			dateStr string
		)
		if err := rows.Scan(&e.ID, &e.Owner, &e.Category, &e.Subcategory, &cents, &dateStr); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Amount = core.Money{Cents: cents}
		if e.Date, err = core.ParseDate(dateStr); err != nil {
			return nil, fmt.Errorf("parse stored expense date %q: %w", dateStr, err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// CreateIncome inserts a record and returns it with the assigned ID.
func (r *Repository) CreateIncome(ctx context.Context, i core.Income) (core.Income, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO income (owner_id, source, amount_cents, date) VALUES (?, ?, ?, ?)`,
		i.Owner, i.Source, i.Amount.Cents, i.Date.String())
	if err != nil {
		return core.Income{}, fmt.Errorf("create income: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Income{}, fmt.Errorf("income insert id: %w", err)
	}
	i.ID = id
	return i, nil
}

func (r *Repository) UpdateIncome(ctx context.Context, i core.Income) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE income SET source = ?, amount_cents = ?, date = ? WHERE id = ? AND owner_id = ?`,
		i.Source, i.Amount.Cents, i.Date.String(), i.ID, i.Owner)
	if err != nil {
		return fmt.Errorf("update income: %w", err)
	}
	return rowsAffectedOrNotFound(res, "update income")
}

func (r *Repository) DeleteIncome(ctx context.Context, owner string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM income WHERE id = ? AND owner_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	return rowsAffectedOrNotFound(res, "delete income")
}

// ListIncome returns the owner's income records ordered by date
// descending, most recent first.
func (r *Repository) ListIncome(ctx context.Context, owner string, rng core.DateRange) ([]core.Income, error) {
	query := `SELECT id, owner_id, source, amount_cents, date FROM income WHERE owner_id = ?`
	args := []any{owner}
	if !rng.IsZero() {
		query += ` AND date >= ? AND date < ?`
		args = append(args, rng.Start.String(), rng.End.String())
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	defer rows.Close()

	var incomes []core.Income
	for rows.Next() {
		var (
			i       core.Income
			cents   int64
			dateStr string
		)
		if err := rows.Scan(&i.ID, &i.Owner, &i.Source, &cents, &dateStr); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		i.Amount = core.Money{Cents: cents}
		if i.Date, err = core.ParseDate(dateStr); err != nil {
			return nil, fmt.Errorf("parse stored income date %q: %w", dateStr, err)
		}
		incomes = append(incomes, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	return incomes, nil
}

// UpsertUser creates or refreshes the local mirror of an identity
// provider account, keyed on the external ID.
func (r *Repository) UpsertUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (external_id, name, email) VALUES (?, ?, ?)
		 ON CONFLICT(external_id) DO UPDATE SET name = excluded.name, email = excluded.email, updated_at = datetime('now')`,
		u.ExternalID, u.Name, u.Email)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// GetUserByExternalID looks up a mirrored user account.
func (r *Repository) GetUserByExternalID(ctx context.Context, externalID string) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, external_id, name, email FROM users WHERE external_id = ?`, externalID).
		Scan(&u.ID, &u.ExternalID, &u.Name, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ListUsers returns every mirrored user account, ordered by external ID.
func (r *Repository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, external_id, name, email FROM users ORDER BY external_id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		var u core.User
		if err := rows.Scan(&u.ID, &u.ExternalID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// DeleteUserByExternalID removes the user row. Missing rows are not an
// error, deprovisioning webhooks can arrive more than once.
func (r *Repository) DeleteUserByExternalID(ctx context.Context, externalID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE external_id = ?`, externalID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// DeleteRecordsByOwner removes every expense and income row of an
// owner. Returns counts for logging.
func (r *Repository) DeleteRecordsByOwner(ctx context.Context, owner string) (expenses int64, incomes int64, err error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE owner_id = ?`, owner)
	if err != nil {
		return 0, 0, fmt.Errorf("purge expenses: %w", err)
	}
	expenses, _ = res.RowsAffected()

	res, err = r.db.ExecContext(ctx, `DELETE FROM income WHERE owner_id = ?`, owner)
	if err != nil {
		return expenses, 0, fmt.Errorf("purge income: %w", err)
	}
	incomes, _ = res.RowsAffected()
	return expenses, incomes, nil
}

// ListOrphanedOwners returns owners that still have records but no user
// row, which happens when a purge message was lost.
func (r *Repository) ListOrphanedOwners(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT owner_id FROM expenses WHERE owner_id NOT IN (SELECT external_id FROM users)
		 UNION
		 SELECT DISTINCT owner_id FROM income WHERE owner_id NOT IN (SELECT external_id FROM users)`)
	if err != nil {
		return nil, fmt.Errorf("list orphaned owners: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("scan orphaned owner: %w", err)
		}
		owners = append(owners, owner)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orphaned owners: %w", err)
	}
	return owners, nil
}

func rowsAffectedOrNotFound(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
