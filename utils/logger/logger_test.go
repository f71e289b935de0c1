package logger_test

import (
	"testing"

	"github.com/muhammadheryan/storefront/utils/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit(t *testing.T) {
	require.NoError(t, logger.Init("development", ""))
	require.NoError(t, logger.Init("production", "warn"))
	assert.False(t, logger.Get().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Get().Core().Enabled(zapcore.WarnLevel))

	assert.Error(t, logger.Init("production", "loud"))
}

func TestReplace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger.Replace(zap.New(core))

	logger.Error("[SubmitReview] err productRepo.InsertReviewTx", zap.String("error", "boom"))

	entries := logs.FilterMessage("[SubmitReview] err productRepo.InsertReviewTx").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0].ContextMap()["error"])
}
