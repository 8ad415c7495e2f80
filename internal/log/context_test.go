// SPDX-License-Identifier: MIT

package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Empty(t, JobIDFromContext(ctx))
}

func TestJobIDRoundTrip(t *testing.T) {
	ctx := ContextWithJobID(context.Background(), "job-1")
	assert.Equal(t, "job-1", JobIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(ctx))
}

func TestEmptyContext(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
	assert.Empty(t, JobIDFromContext(context.Background()))
	//nolint:staticcheck // nil context handling is part of the contract
	assert.Empty(t, RequestIDFromContext(nil))
}

func TestNilContextDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = ContextWithRequestID(nil, "x") //nolint:staticcheck
		_ = ContextWithJobID(nil, "x")     //nolint:staticcheck
		_ = FromContext(nil)               //nolint:staticcheck
	})
}
