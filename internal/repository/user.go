package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stokhub/internal/apperrors"
	"stokhub/internal/model"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func (r *UserRepository) SelectUserByCode(ctx context.Context, ext RepoExtension, userCode string) (*model.User, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT id, user_code, description, password, admin, aktif, sube_ids, telefon, created_at
		FROM sso.users
		WHERE user_code = $1;
	`

	return r.scanUser(ext.QueryRow(ctx, query, userCode))
}

func (r *UserRepository) SelectUserByID(ctx context.Context, ext RepoExtension, id int64) (*model.User, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT id, user_code, description, password, admin, aktif, sube_ids, telefon, created_at
		FROM sso.users
		WHERE id = $1;
	`

	return r.scanUser(ext.QueryRow(ctx, query, id))
}

func (r *UserRepository) scanUser(row pgx.Row) (*model.User, error) {
	var user model.User

	if err := row.Scan(
		&user.ID,
		&user.UserCode,
		&user.Description,
		&user.HashedPassword,
		&user.Admin,
		&user.Aktif,
		&user.SubeIDs,
		&user.Telefon,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserDoesNotExist
		}

		return nil, err
	}

	return &user, nil
}
