package trace

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	id, ok := RequestIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "req-123", id)
}

func TestRequestIDFromContextMissing(t *testing.T) {
	_, ok := RequestIDFromContext(context.Background())
	assert.False(t, ok)
}

func TestEnsureRequestIDGeneratesWhenAbsent(t *testing.T) {
	id := EnsureRequestID(context.Background())
	assert.NotEmpty(t, id)

	// Present IDs are preserved
	ctx := WithRequestID(context.Background(), "existing")
	assert.Equal(t, "existing", EnsureRequestID(ctx))
}

func TestTraceParentRoundTrip(t *testing.T) {
	ctx := WithTraceParent(context.Background(), "00-abc-def-01")
	tp, ok := TraceParentFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "00-abc-def-01", tp)
}

func TestGenerateTraceParentFormat(t *testing.T) {
	re := regexp.MustCompile(`^00-[0-9a-f]{32}-[0-9a-f]{16}-01$`)
	for range 10 {
		tp := GenerateTraceParent()
		assert.Regexp(t, re, tp)
	}
}
