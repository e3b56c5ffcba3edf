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

var userColumns = []string{"id", "external_id", "email", "name", "created_at", "updated_at"}

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.ExternalID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Ensure returns the user registered for user.ExternalID, creating it on the
// first call. Email and name are refreshed from the identity provider.
func (r *UserRepository) Ensure(ctx context.Context, user *models.User) (*models.User, error) {
	sql, args, err := psql.Insert("users").
		Columns(userColumns...).
		Values(user.ID, user.ExternalID, user.Email, user.Name, user.CreatedAt, user.UpdatedAt).
		Suffix("ON CONFLICT (external_id) DO UPDATE SET email = EXCLUDED.email, name = EXCLUDED.name, updated_at = EXCLUDED.updated_at").
		Suffix("RETURNING " + strings.Join(userColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}

	u, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: email %s is registered to another identity", models.ErrValidation, user.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	sql, args, err := psql.Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	u, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	return u, err
}

// FindUsers lists every registered user.
func (r *UserRepository) FindUsers(ctx context.Context) ([]*models.User, error) {
	sql, args, err := psql.Select(userColumns...).
		From("users").
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
