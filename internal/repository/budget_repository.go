package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finelytics/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var budgetColumns = []string{"id", "user_id", "amount", "last_alert_sent", "created_at", "updated_at"}

type BudgetRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewBudgetRepository(db *pgxpool.Pool, logger *zap.Logger) *BudgetRepository {
	return &BudgetRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert creates the user's budget or updates its amount.
func (r *BudgetRepository) Upsert(ctx context.Context, budget *models.Budget) (*models.Budget, error) {
	sql, args, err := psql.Insert("budgets").
		Columns("id", "user_id", "amount", "created_at", "updated_at").
		Values(budget.ID, budget.UserID, budget.Amount, budget.CreatedAt, budget.UpdatedAt).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET amount = EXCLUDED.amount, updated_at = EXCLUDED.updated_at").
		Suffix("RETURNING " + strings.Join(budgetColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}

	var b models.Budget
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&b.ID, &b.UserID, &b.Amount, &b.LastAlertSent, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert budget: %w", err)
	}
	return &b, nil
}

func (r *BudgetRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Budget, error) {
	sql, args, err := psql.Select(budgetColumns...).
		From("budgets").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var b models.Budget
	err = r.db.QueryRow(ctx, sql, args...).Scan(&b.ID, &b.UserID, &b.Amount, &b.LastAlertSent, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrBudgetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// FindBudgetsWithDefaultAccounts joins every budget with its owner and the
// owner's default account. Owners without a default account are left out.
func (r *BudgetRepository) FindBudgetsWithDefaultAccounts(ctx context.Context) ([]*models.BudgetAlertCandidate, error) {
	sql, args, err := psql.Select(
		"b.id", "b.user_id", "b.amount", "b.last_alert_sent", "b.created_at", "b.updated_at",
		"a.id", "a.user_id", "a.name", "a.type", "a.balance", "a.is_default", "a.created_at", "a.updated_at",
		"u.id", "u.external_id", "u.email", "u.name", "u.created_at", "u.updated_at",
	).
		From("budgets b").
		Join("users u ON u.id = b.user_id").
		Join("accounts a ON a.user_id = b.user_id AND a.is_default").
		OrderBy("b.user_id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.BudgetAlertCandidate
	for rows.Next() {
		var c models.BudgetAlertCandidate
		b, a, u := &c.Budget, &c.Account, &c.User
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.Amount, &b.LastAlertSent, &b.CreatedAt, &b.UpdatedAt,
			&a.ID, &a.UserID, &a.Name, &a.Type, &a.Balance, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt,
			&u.ID, &u.ExternalID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *BudgetRepository) UpdateBudgetAlertSent(ctx context.Context, budgetID uuid.UUID, at time.Time) error {
	sql, args, err := psql.Update("budgets").
		Set("last_alert_sent", at).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": budgetID}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update last_alert_sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrBudgetNotFound
	}
	return nil
}
