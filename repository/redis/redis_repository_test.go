package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	redisrepo "github.com/muhammadheryan/storefront/repository/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cached struct {
	ID     string  `json:"id"`
	Rating float64 `json:"rating"`
}

func TestRepository_GetJSON(t *testing.T) {
	ctx := context.Background()

	t.Run("hit", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectGet("catalog:products:top").SetVal(`[{"id":"p-1","rating":4.5}]`)

		var got []cached
		ok, err := redisrepo.NewRepository(client).GetJSON(ctx, "catalog:products:top", &got)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []cached{{ID: "p-1", Rating: 4.5}}, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("miss", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectGet("catalog:products:top").RedisNil()

		var got []cached
		ok, err := redisrepo.NewRepository(client).GetJSON(ctx, "catalog:products:top", &got)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectGet("catalog:products:top").SetErr(errors.New("conn refused"))

		var got []cached
		ok, err := redisrepo.NewRepository(client).GetJSON(ctx, "catalog:products:top", &got)
		assert.Error(t, err)
		assert.False(t, ok)
	})

	t.Run("nil client is a miss", func(t *testing.T) {
		var got []cached
		ok, err := redisrepo.NewRepository(nil).GetJSON(ctx, "catalog:products:top", &got)
		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRepository_SetJSON(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectSet("catalog:products:top", []byte(`[{"id":"p-1","rating":4.5}]`), time.Minute).SetVal("OK")

	err := redisrepo.NewRepository(client).SetJSON(context.Background(), "catalog:products:top", []cached{{ID: "p-1", Rating: 4.5}}, time.Minute)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Counters(t *testing.T) {
	ctx := context.Background()

	t.Run("missing counter reads as zero", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectGet("catalog:products:top:gen").RedisNil()

		got, err := redisrepo.NewRepository(client).GetInt(ctx, "catalog:products:top:gen")
		require.NoError(t, err)
		assert.Equal(t, int64(0), got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("increment then read", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		repo := redisrepo.NewRepository(client)
		mock.ExpectIncr("catalog:products:top:gen").SetVal(4)
		mock.ExpectGet("catalog:products:top:gen").SetVal("4")

		n, err := repo.Incr(ctx, "catalog:products:top:gen")
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
		got, err := repo.GetInt(ctx, "catalog:products:top:gen")
		require.NoError(t, err)
		assert.Equal(t, int64(4), got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("read error", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectGet("catalog:products:top:gen").SetErr(errors.New("conn refused"))

		_, err := redisrepo.NewRepository(client).GetInt(ctx, "catalog:products:top:gen")
		assert.Error(t, err)
	})

	t.Run("nil client", func(t *testing.T) {
		repo := redisrepo.NewRepository(nil)
		n, err := repo.Incr(ctx, "catalog:products:top:gen")
		assert.NoError(t, err)
		assert.Equal(t, int64(0), n)
		got, err := repo.GetInt(ctx, "catalog:products:top:gen")
		assert.NoError(t, err)
		assert.Equal(t, int64(0), got)
	})
}

func TestRepository_Sessions(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	repo := redisrepo.NewRepository(client)

	mock.ExpectSet("session:abc", uint64(42), time.Hour).SetVal("OK")
	mock.ExpectGet("session:abc").SetVal("42")
	mock.ExpectDel("session:abc").SetVal(1)

	require.NoError(t, repo.SetSession(ctx, "abc", 42, time.Hour))
	id, err := repo.GetSession(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	require.NoError(t, repo.DeleteSession(ctx, "abc"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
