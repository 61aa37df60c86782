package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotHolder = Reason(CodeUnauthorized, "CallerNotHolder")

func TestReasonMatching(t *testing.T) {
	t.Run("same value matches", func(t *testing.T) {
		assert.ErrorIs(t, errNotHolder, errNotHolder)
	})

	t.Run("wrapped reason still matches", func(t *testing.T) {
		err := fmt.Errorf("endorse: %w", errNotHolder)
		assert.ErrorIs(t, err, errNotHolder)
		assert.Equal(t, "CallerNotHolder", ReasonOf(err))
	})

	t.Run("different reason with same code does not match", func(t *testing.T) {
		other := Reason(CodeUnauthorized, "CallerNotBeneficiary")
		assert.False(t, errors.Is(other, errNotHolder))
	})

	t.Run("reason with cause matches and unwraps", func(t *testing.T) {
		cause := errors.New("short buffer")
		err := errNotHolder.Because(cause)
		assert.ErrorIs(t, err, errNotHolder)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "CallerNotHolder: short buffer", err.Error())
		assert.Nil(t, errNotHolder.Err)
	})

	t.Run("plain coded errors never match reasons", func(t *testing.T) {
		err := New(CodeUnauthorized, "nope")
		assert.False(t, errors.Is(err, errNotHolder))
	})
}

func TestHasCode(t *testing.T) {
	err := Wrap(errNotHolder, CodeInternal, "relay failed")
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeInternal))
	assert.True(t, HasCode(err, CodeUnauthorized))
	assert.False(t, HasCode(err, CodePaused))
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Equal(t, "relay failed: CallerNotHolder", err.Error())
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, ToHTTPStatus(CodeUnauthorized))
	assert.Equal(t, http.StatusConflict, ToHTTPStatus(CodeInvalidState))
	assert.Equal(t, http.StatusBadRequest, ToHTTPStatus(CodeValidation))
	assert.Equal(t, http.StatusLocked, ToHTTPStatus(CodePaused))
	assert.Equal(t, http.StatusBadGateway, ToHTTPStatus(CodeCrossChain))
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(Code("other")))
}
