package toolerr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil error", nil, ""},
		{"plain error", errors.New("boom"), "TOOL_EXECUTION_ERROR"},
		{"identifier", New(ErrInvalidIdentifier, "bad"), "INVALID_IDENTIFIER"},
		{"username", New(ErrInvalidUsername, "bad"), "INVALID_USERNAME"},
		{"host", New(ErrInvalidHost, "bad"), "INVALID_HOST"},
		{"wrapped not found", fmt.Errorf("building: %w", New(ErrNotFound, "none")), "NOT_FOUND"},
		{"upstream", Upstream(errors.New("socket closed")), "UPSTREAM_ERROR"},
		{"deadline", Upstream(context.DeadlineExceeded), "UPSTREAM_ERROR"},
		{"timeout kind", New(ErrTimeout, "slow"), "COMMAND_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}

func TestUpstreamKeepsMessage(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := Upstream(cause)

	require.Error(t, err)
	assert.Equal(t, "connection reset by peer", err.Error())
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, cause)
}

func TestUpstreamKeepsDeadline(t *testing.T) {
	err := Upstream(fmt.Errorf("query: %w", context.DeadlineExceeded))

	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "query: context deadline exceeded", err.Error())
}

func TestUpstreamDoesNotReclassify(t *testing.T) {
	orig := New(ErrUnreachable, "mysql is down")
	err := Upstream(orig)

	assert.Same(t, orig, err)
	assert.NotErrorIs(t, err, ErrUpstream)
}
