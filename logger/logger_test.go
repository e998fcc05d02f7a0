package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReturnsLogger(t *testing.T) {
	log := New("info", false)
	require.NotNil(t, log)
	assert.NotNil(t, log.Info())
	assert.NotNil(t, log.Debug())
	assert.NotNil(t, log.Warn())
	assert.NotNil(t, log.Error())
}

func TestNewFallsBackToInfoOnBadLevel(t *testing.T) {
	log := New("not-a-level", false)
	require.NotNil(t, log)
	// Should not panic when logging
	log.Info().Str("key", "value").Msg("test")
}

func TestWithFieldsReturnsNewLogger(t *testing.T) {
	log := New("info", false)
	child := log.WithFields(map[string]any{"component": "pipeline"})
	require.NotNil(t, child)
	assert.NotSame(t, log, child)
}

func TestFilterStringMasksSensitiveKeys(t *testing.T) {
	f := NewRedactionFilter(nil)

	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"authorization header", "Authorization", "Bearer abc123", DefaultMaskValue},
		{"api key", "apikey", "secret-key", DefaultMaskValue},
		{"access token", "access_token", "tok", DefaultMaskValue},
		{"plain field", "url", "https://api.example.com", "https://api.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.FilterString(tt.key, tt.value))
		})
	}
}

func TestFilterValueMasksHeaderMaps(t *testing.T) {
	f := NewRedactionFilter(nil)

	headers := map[string]string{
		"Authorization": "Bearer secret",
		"Content-Type":  "application/json",
	}
	got, ok := f.FilterValue("headers", headers).(map[string]string)
	require.True(t, ok)
	assert.Equal(t, DefaultMaskValue, got["Authorization"])
	assert.Equal(t, "application/json", got["Content-Type"])
}

func TestFilterValueMasksMultiValueHeaders(t *testing.T) {
	f := NewRedactionFilter(nil)

	headers := map[string][]string{
		"Authorization": {"Bearer secret"},
		"Accept":        {"application/json", "text/plain"},
	}
	got, ok := f.FilterValue("headers", headers).(map[string][]string)
	require.True(t, ok)
	assert.Equal(t, []string{DefaultMaskValue}, got["Authorization"])
	assert.Equal(t, []string{"application/json", "text/plain"}, got["Accept"])
}

func TestFilterFieldsMasksNestedMaps(t *testing.T) {
	f := NewRedactionFilter(nil)

	fields := map[string]any{
		"request": map[string]any{
			"token": "abc",
			"url":   "https://example.com",
		},
		"attempt": 2,
	}
	got := f.FilterFields(fields)
	nested, ok := got["request"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, DefaultMaskValue, nested["token"])
	assert.Equal(t, "https://example.com", nested["url"])
	assert.Equal(t, 2, got["attempt"])
}

func TestCustomMaskValue(t *testing.T) {
	f := NewRedactionFilter(&RedactionConfig{
		SensitiveFields: []string{"pin"},
		MaskValue:       "[redacted]",
	})
	assert.Equal(t, "[redacted]", f.FilterString("pin", "1234"))
	assert.Equal(t, "Bearer x", f.FilterString("authorization", "Bearer x"))
}
