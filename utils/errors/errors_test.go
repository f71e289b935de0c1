package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/muhammadheryan/storefront/constant"
	cerr "github.com/muhammadheryan/storefront/utils/errors"
	"github.com/stretchr/testify/assert"
)

func TestCustomError(t *testing.T) {
	err := cerr.SetCustomError(constant.ErrAlreadyReviewed)

	assert.Equal(t, "product already reviewed", err.Error())
	assert.Equal(t, "0008", err.ErrorCode())
	assert.Equal(t, http.StatusBadRequest, err.ErrorHTTPCode())
	assert.Equal(t, constant.ErrAlreadyReviewed, err.Type())
}

func TestIs(t *testing.T) {
	notFound := cerr.SetCustomError(constant.ErrNotFound)

	assert.True(t, cerr.Is(notFound, constant.ErrNotFound))
	assert.True(t, cerr.Is(fmt.Errorf("wrapped: %w", notFound), constant.ErrNotFound))
	assert.False(t, cerr.Is(notFound, constant.ErrInternal))
	assert.False(t, cerr.Is(stderrors.New("plain"), constant.ErrNotFound))
	assert.False(t, cerr.Is(nil, constant.ErrNotFound))
}

func TestErrorMapsComplete(t *testing.T) {
	for errType := range constant.ErrorTypeMessage {
		assert.Contains(t, constant.ErrorTypeHTTPCode, errType)
		assert.Contains(t, constant.ErrorTypeCode, errType)
	}
}
