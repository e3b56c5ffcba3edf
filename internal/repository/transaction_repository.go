package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finelytics/internal/models"
	"finelytics/internal/recurrence"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var transactionColumns = []string{
	"id", "user_id", "account_id", "type", "amount", "description", "category", "date",
	"is_recurring", "recurring_interval", "next_recurring_date", "last_processed_date",
	"status", "created_at", "updated_at",
}

type TransactionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTransactionRepository(db *pgxpool.Pool, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var (
		tx       models.Transaction
		interval *string
	)
	if err := row.Scan(
		&tx.ID, &tx.UserID, &tx.AccountID, &tx.Type, &tx.Amount, &tx.Description, &tx.Category, &tx.Date,
		&tx.IsRecurring, &interval, &tx.NextRecurringDate, &tx.LastProcessedDate,
		&tx.Status, &tx.CreatedAt, &tx.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if interval != nil {
		tx.RecurringInterval = recurrence.Interval(*interval)
	}
	return &tx, nil
}

func insertTransaction(ctx context.Context, q querier, tx *models.Transaction) error {
	var interval *string
	if tx.RecurringInterval != "" {
		s := tx.RecurringInterval.String()
		interval = &s
	}

	sql, args, err := psql.Insert("transactions").
		Columns(transactionColumns...).
		Values(
			tx.ID, tx.UserID, tx.AccountID, tx.Type, tx.Amount, tx.Description, tx.Category, tx.Date,
			tx.IsRecurring, interval, tx.NextRecurringDate, tx.LastProcessedDate,
			tx.Status, tx.CreatedAt, tx.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// CreateWithBalance inserts a transaction and applies its signed amount to the
// account balance as one unit.
func (r *TransactionRepository) CreateWithBalance(ctx context.Context, tx *models.Transaction) error {
	return inSerializableTx(ctx, r.db, func(dbtx pgx.Tx) error {
		if err := lockAccount(ctx, dbtx, tx.AccountID, tx.UserID); err != nil {
			return err
		}
		if err := insertTransaction(ctx, dbtx, tx); err != nil {
			return err
		}
		return applyBalanceDelta(ctx, dbtx, tx.AccountID, tx.UserID, tx.SignedAmount())
	})
}

// GetByIDForUser loads a transaction owned by userID.
func (r *TransactionRepository) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Transaction, error) {
	sql, args, err := psql.Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	tx, err := scanTransaction(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrTransactionNotFound
	}
	return tx, err
}

func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID, userID uuid.UUID, limit, offset int) ([]*models.Transaction, error) {
	q := psql.Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"account_id": accountID, "user_id": userID}).
		OrderBy("date DESC", "created_at DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit)).Offset(uint64(offset))
	}
	return r.list(ctx, q)
}

// FindDueRecurring returns completed recurring templates that were never
// processed or whose next occurrence is at or before now.
func (r *TransactionRepository) FindDueRecurring(ctx context.Context, now time.Time) ([]*models.Transaction, error) {
	q := psql.Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"is_recurring": true, "status": models.TransactionStatusCompleted}).
		Where(squirrel.Or{
			squirrel.Eq{"last_processed_date": nil},
			squirrel.LtOrEq{"next_recurring_date": now},
		}).
		OrderBy("user_id", "next_recurring_date")
	return r.list(ctx, q)
}

func (r *TransactionRepository) list(ctx context.Context, q squirrel.SelectBuilder) ([]*models.Transaction, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

// SumExpenses totals EXPENSE amounts of one account within [from, to).
func (r *TransactionRepository) SumExpenses(ctx context.Context, userID, accountID uuid.UUID, period models.DateRange) (decimal.Decimal, error) {
	sql, args, err := psql.Select("COALESCE(SUM(amount), 0)").
		From("transactions").
		Where(squirrel.Eq{"user_id": userID, "account_id": accountID, "type": models.TransactionTypeExpense}).
		Where(squirrel.GtOrEq{"date": period.From}).
		Where(squirrel.Lt{"date": period.To}).
		ToSql()
	if err != nil {
		return decimal.Zero, err
	}

	var total decimal.Decimal
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

// MonthlyStats aggregates all of a user's transactions within period.
func (r *TransactionRepository) MonthlyStats(ctx context.Context, userID uuid.UUID, period models.DateRange) (*models.MonthlyStats, error) {
	sql, args, err := psql.Select("type", "category", "COALESCE(SUM(amount), 0)", "COUNT(*)").
		From("transactions").
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.GtOrEq{"date": period.From}).
		Where(squirrel.Lt{"date": period.To}).
		GroupBy("type", "category").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("monthly stats: %w", err)
	}
	defer rows.Close()

	stats := &models.MonthlyStats{ByCategory: map[string]decimal.Decimal{}}
	for rows.Next() {
		var (
			txType   models.TransactionType
			category string
			sum      decimal.Decimal
			count    int
		)
		if err := rows.Scan(&txType, &category, &sum, &count); err != nil {
			return nil, err
		}
		stats.TransactionCount += count
		switch txType {
		case models.TransactionTypeIncome:
			stats.TotalIncome = stats.TotalIncome.Add(sum)
		case models.TransactionTypeExpense:
			stats.TotalExpenses = stats.TotalExpenses.Add(sum)
			stats.ByCategory[category] = stats.ByCategory[category].Add(sum)
		}
	}
	return stats, rows.Err()
}

// ApplyRecurrence inserts the occurrence, moves the account balance and
// advances the template in one serializable transaction. It returns
// models.ErrNotDue, without mutating anything, when the locked template is no
// longer due or was advanced since it was read.
func (r *TransactionRepository) ApplyRecurrence(ctx context.Context, app *models.RecurrenceApplication) error {
	return inSerializableTx(ctx, r.db, func(dbtx pgx.Tx) error {
		sql, args, err := psql.Select(transactionColumns...).
			From("transactions").
			Where(squirrel.Eq{"id": app.TemplateID, "user_id": app.UserID}).
			Suffix("FOR UPDATE").
			ToSql()
		if err != nil {
			return err
		}
		tmpl, err := scanTransaction(dbtx.QueryRow(ctx, sql, args...))
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrTransactionNotFound
		}
		if err != nil {
			return fmt.Errorf("lock template: %w", err)
		}
		if !tmpl.IsDue(app.ProcessedAt) || !sameTime(tmpl.NextRecurringDate, app.ExpectedNextDate) {
			return models.ErrNotDue
		}

		if err := lockAccount(ctx, dbtx, tmpl.AccountID, tmpl.UserID); err != nil {
			return err
		}
		if err := insertTransaction(ctx, dbtx, app.Occurrence); err != nil {
			return err
		}
		if err := applyBalanceDelta(ctx, dbtx, tmpl.AccountID, tmpl.UserID, app.Delta); err != nil {
			return err
		}

		sql, args, err = psql.Update("transactions").
			Set("last_processed_date", app.ProcessedAt).
			Set("next_recurring_date", app.NextDate).
			Set("updated_at", app.ProcessedAt).
			Where(squirrel.Eq{"id": app.TemplateID}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := dbtx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("advance template: %w", err)
		}
		return nil
	})
}

func lockAccount(ctx context.Context, q querier, accountID, userID uuid.UUID) error {
	sql, args, err := psql.Select("id").
		From("accounts").
		Where(squirrel.Eq{"id": accountID, "user_id": userID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return err
	}
	var id uuid.UUID
	if err := q.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrAccountNotFound
		}
		return fmt.Errorf("lock account: %w", err)
	}
	return nil
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
