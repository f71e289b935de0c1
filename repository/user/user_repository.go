package user

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/muhammadheryan/storefront/model"
)

type SQL struct {
	conn *sqlx.DB
}

type UserRepository interface {
	Create(ctx context.Context, data *model.UserEntity) (*model.UserEntity, error)
	Get(ctx context.Context, filter *model.UserFilter) (*model.UserEntity, error)
	List(ctx context.Context) ([]model.UserEntity, error)
	Delete(ctx context.Context, id uint64) (bool, error)
}

func NewUserRepository(conn *sqlx.DB) UserRepository {
	return &SQL{conn: conn}
}

const insertUserQuery = `INSERT INTO user (name, email, phone, password_hash, is_admin, created_at) VALUES (?, ?, ?, ?, ?, ?)`

var userColumns = []string{"id", "name", "email", "phone", "password_hash", "is_admin", "created_at", "updated_at"}

func (s *SQL) Create(ctx context.Context, data *model.UserEntity) (*model.UserEntity, error) {
	result, err := s.conn.ExecContext(ctx, insertUserQuery, data.Name, data.Email, data.Phone, data.PasswordHash, data.IsAdmin, data.CreatedAt)
	if err != nil {
		return nil, err
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	data.ID = uint64(lastID)
	return data, nil
}

// Get returns the first user matching every non-zero field of filter, or
// nil when none does.
func (s *SQL) Get(ctx context.Context, filter *model.UserFilter) (*model.UserEntity, error) {
	cond := sq.And{}
	if filter.ID != 0 {
		cond = append(cond, sq.Eq{"id": filter.ID})
	}
	if filter.Email != "" {
		cond = append(cond, sq.Eq{"email": filter.Email})
	}
	if filter.Phone != "" {
		cond = append(cond, sq.Eq{"phone": filter.Phone})
	}

	query, args, err := sq.Select(userColumns...).
		From("user").
		Where(cond).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var entity model.UserEntity
	if err := s.conn.QueryRowxContext(ctx, query, args...).StructScan(&entity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &entity, nil
}

// List returns every user in sign-up order.
func (s *SQL) List(ctx context.Context) ([]model.UserEntity, error) {
	query, args, err := sq.Select(userColumns...).From("user").OrderBy("id").ToSql()
	if err != nil {
		return nil, err
	}

	users := make([]model.UserEntity, 0)
	if err := s.conn.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, err
	}
	return users, nil
}

// Delete removes the user and reports whether a row was removed. Products,
// reviews and orders keep the id they were written with.
func (s *SQL) Delete(ctx context.Context, id uint64) (bool, error) {
	res, err := s.conn.ExecContext(ctx, "DELETE FROM user WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
