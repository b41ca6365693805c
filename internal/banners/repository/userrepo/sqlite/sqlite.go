package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Leopold1975/page_banners/internal/banners/domain/models"
	"github.com/Leopold1975/page_banners/internal/banners/repository/userrepo"
	"github.com/Leopold1975/page_banners/internal/pkg/sqlitetools"
	"github.com/Masterminds/squirrel"
)

type UsersSQLiteRepo struct {
	db *sql.DB
	sb squirrel.StatementBuilderType
}

func New(db *sql.DB) UsersSQLiteRepo {
	return UsersSQLiteRepo{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

func (ur UsersSQLiteRepo) CreateUser(ctx context.Context, u models.User) error {
	query, args, err := ur.sb.Insert("users").
		Columns("username", "password_hash", "user_role").
		Values(u.Username, u.PasswordHash, u.Role).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err := ur.db.ExecContext(ctx, query, args...); err != nil {
		if sqlitetools.IsUniqueViolation(err) {
			return userrepo.ErrAlreadyExists
		}

		return fmt.Errorf("exec error: %w", err)
	}

	return nil
}

func (ur UsersSQLiteRepo) GetUser(ctx context.Context, username string) (models.User, error) {
	query, args, err := ur.sb.Select("id", "username", "password_hash", "user_role").
		From("users").
		Where(squirrel.Eq{"username": username}).ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("to sql error: %w", err)
	}

	var u models.User

	if err := ur.db.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return u, userrepo.ErrNotFound
		}

		return u, fmt.Errorf("scan error: %w", err)
	}

	return u, nil
}
