package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"finelytics/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var accountColumns = []string{"id", "user_id", "name", "type", "balance", "is_default", "created_at", "updated_at"}

type AccountRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAccountRepository(db *pgxpool.Pool, logger *zap.Logger) *AccountRepository {
	return &AccountRepository{
		db:     db,
		logger: logger,
	}
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Balance, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts an account. The first account of a user always becomes the
// default one; a new default account clears the previous default.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	return inSerializableTx(ctx, r.db, func(tx pgx.Tx) error {
		sql, args, err := psql.Select("COUNT(*)").
			From("accounts").
			Where(squirrel.Eq{"user_id": account.UserID}).
			ToSql()
		if err != nil {
			return err
		}
		var existing int
		if err := tx.QueryRow(ctx, sql, args...).Scan(&existing); err != nil {
			return err
		}
		if existing == 0 {
			account.IsDefault = true
		}
		if account.IsDefault {
			if err := clearDefault(ctx, tx, account.UserID); err != nil {
				return err
			}
		}

		sql, args, err = psql.Insert("accounts").
			Columns(accountColumns...).
			Values(account.ID, account.UserID, account.Name, account.Type, account.Balance, account.IsDefault, account.CreatedAt, account.UpdatedAt).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		return nil
	})
}

// SetDefault makes accountID the user's only default account.
func (r *AccountRepository) SetDefault(ctx context.Context, accountID, userID uuid.UUID) (*models.Account, error) {
	var account *models.Account
	err := inSerializableTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := clearDefault(ctx, tx, userID); err != nil {
			return err
		}
		sql, args, err := psql.Update("accounts").
			Set("is_default", true).
			Set("updated_at", squirrel.Expr("now()")).
			Where(squirrel.Eq{"id": accountID, "user_id": userID}).
			Suffix("RETURNING " + strings.Join(accountColumns, ", ")).
			ToSql()
		if err != nil {
			return err
		}
		account, err = scanAccount(tx.QueryRow(ctx, sql, args...))
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrAccountNotFound
		}
		return err
	})
	return account, err
}

func clearDefault(ctx context.Context, q querier, userID uuid.UUID) error {
	sql, args, err := psql.Update("accounts").
		Set("is_default", false).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"user_id": userID, "is_default": true}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, sql, args...)
	return err
}

func (r *AccountRepository) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Account, error) {
	sql, args, err := psql.Select(accountColumns...).
		From("accounts").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	account, err := scanAccount(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	return account, err
}

func (r *AccountRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Account, error) {
	sql, args, err := psql.Select(accountColumns...).
		From("accounts").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
