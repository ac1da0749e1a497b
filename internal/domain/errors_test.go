package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "already_exists", KindAlreadyExists.String())
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "upstream_unavailable", KindUpstreamUnavailable.String())
	assert.Equal(t, "invalid_state", KindInvalidState.String())
	assert.Equal(t, "upstream_partial_failure", KindUpstreamPartialFailure.String())
	assert.Equal(t, "invalid_input", KindInvalidInput.String())
	assert.Equal(t, "unknown", ErrorKind(0).String())
}

func TestIsKind_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("update failed: %w", ErrNotFound("110022"))

	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindAlreadyExists))
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, ErrorKind(0), KindOf(errors.New("plain")))
	assert.Equal(t, ErrorKind(0), KindOf(nil))
}

func TestErrorsIs_MatchesOnKind(t *testing.T) {
	err := ErrAlreadyExists("000001")

	assert.True(t, errors.Is(err, &Error{Kind: KindAlreadyExists}))
	assert.True(t, errors.Is(err, &Error{Kind: KindAlreadyExists, Code: "000001"}))
	assert.False(t, errors.Is(err, &Error{Kind: KindAlreadyExists, Code: "999999"}))
	assert.False(t, errors.Is(err, &Error{Kind: KindNotFound}))
}

func TestError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapError(KindUpstreamUnavailable, "000001", "realtime estimate unavailable", cause)

	assert.Equal(t, "upstream_unavailable [000001]: realtime estimate unavailable: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "invalid_state", NewError(KindInvalidState, "", "").Error())
}
