package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAndAccessors(t *testing.T) {
	err := New(CodeIllegalTransition, "cannot move there")
	assert.Equal(t, CodeIllegalTransition, CodeOf(err))
	assert.Equal(t, "cannot move there", MessageOf(err))
	assert.Equal(t, "illegal_transition: cannot move there", err.Error())
}

func TestNewf(t *testing.T) {
	err := Newf(CodeNotFound, "request %d not found", 7)
	assert.Equal(t, "request 7 not found", MessageOf(err))
}

func TestIs(t *testing.T) {
	err := New(CodeUnauthorizedRole, "nope")
	assert.True(t, Is(err, CodeUnauthorizedRole))
	assert.False(t, Is(err, CodeNotFound))
	assert.False(t, Is(nil, CodeNotFound))
	assert.False(t, Is(errors.New("plain"), CodeNotFound))
}

func TestWrappedErrorsKeepTheirCode(t *testing.T) {
	inner := New(CodePreconditionUnmet, "payment missing")
	wrapped := fmt.Errorf("transition: %w", inner)
	assert.True(t, Is(wrapped, CodePreconditionUnmet))
	assert.Equal(t, CodePreconditionUnmet, CodeOf(wrapped))
}

func TestUnknownErrorsMapToInternal(t *testing.T) {
	err := errors.New("driver: bad connection")
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Equal(t, "driver: bad connection", MessageOf(err))
	assert.Equal(t, CodeInternal, CodeOf(nil))
}
