package user_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/muhammadheryan/storefront/model"
	userrepo "github.com/muhammadheryan/storefront/repository/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (userrepo.UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	conn := sqlx.NewDb(db, "mysql")
	t.Cleanup(func() { _ = conn.Close() })
	return userrepo.NewUserRepository(conn), mock
}

func TestSQL_Create(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user (name, email, phone, password_hash, is_admin, created_at) VALUES (?, ?, ?, ?, ?, ?)")).
		WithArgs("Ann", "ann@example.com", "0811", "hash", false, now).
		WillReturnResult(sqlmock.NewResult(12, 1))

	got, err := repo.Create(context.Background(), &model.UserEntity{
		Name: "Ann", Email: "ann@example.com", Phone: "0811", PasswordHash: "hash", CreatedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(12), got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_Get(t *testing.T) {
	columns := []string{"id", "name", "email", "phone", "password_hash", "is_admin", "created_at", "updated_at"}

	t.Run("by email", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, phone, password_hash, is_admin, created_at, updated_at FROM user WHERE (email = ?) LIMIT 1")).
			WithArgs("ann@example.com").
			WillReturnRows(sqlmock.NewRows(columns).AddRow(3, "Ann", "ann@example.com", "0811", "hash", true, time.Now(), nil))

		got, err := repo.Get(context.Background(), &model.UserFilter{Email: "ann@example.com"})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, uint64(3), got.ID)
		assert.True(t, got.IsAdmin)
		assert.Nil(t, got.UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM user WHERE (id = ?) LIMIT 1")).
			WithArgs(uint64(99)).
			WillReturnRows(sqlmock.NewRows(columns))

		got, err := repo.Get(context.Background(), &model.UserFilter{ID: 99})
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestSQL_List(t *testing.T) {
	columns := []string{"id", "name", "email", "phone", "password_hash", "is_admin", "created_at", "updated_at"}

	t.Run("in id order", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, phone, password_hash, is_admin, created_at, updated_at FROM user ORDER BY id")).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(1, "Admin", "admin@example.com", "0810", "hash", true, time.Now(), nil).
				AddRow(2, "Ann", "ann@example.com", "0811", "hash", false, time.Now(), nil))

		got, err := repo.List(context.Background())
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.True(t, got[0].IsAdmin)
		assert.Equal(t, "Ann", got[1].Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no users", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("FROM user ORDER BY id").WillReturnRows(sqlmock.NewRows(columns))

		got, err := repo.List(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestSQL_Delete(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "removed", affected: 1, want: true},
		{name: "no such user", affected: 0, want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectExec(regexp.QuoteMeta("DELETE FROM user WHERE id = ?")).
				WithArgs(uint64(4)).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			got, err := repo.Delete(context.Background(), 4)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
