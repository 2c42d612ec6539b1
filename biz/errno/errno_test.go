package errno

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfAndIs(t *testing.T) {
	err := fmt.Errorf("trade: %w", New(KindInsufficientFunds, "need %s have %s", "10", "2"))

	assert.Equal(t, KindInsufficientFunds, KindOf(err))
	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.False(t, errors.Is(err, ErrPositionNotFound))
	assert.Equal(t, "need 10 have 2", Message(err))
}

func TestWrapHidesCause(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := Wrap(KindStoreFailure, cause, "could not apply deposit")

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "could not apply deposit", Message(err))
	assert.Equal(t, "internal error", Message(cause))
	assert.Equal(t, KindStoreFailure, KindOf(cause))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, 400, HTTPStatus(KindValidation))
	assert.Equal(t, 400, HTTPStatus(KindInsufficientHolding))
	assert.Equal(t, 404, HTTPStatus(KindNotFound))
	assert.Equal(t, 502, HTTPStatus(KindUpstreamUnavailable))
	assert.Equal(t, 500, HTTPStatus(KindStoreFailure))
}
