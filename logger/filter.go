// Package logger provides masking of sensitive values in log output.
package logger

import "strings"

// DefaultMaskValue replaces sensitive values in log output.
const DefaultMaskValue = "***"

// RedactionConfig defines which field names are considered sensitive.
type RedactionConfig struct {
	// SensitiveFields contains field names (case-insensitive) whose values
	// are masked in logs.
	SensitiveFields []string
	// MaskValue is the replacement for sensitive values (default: "***").
	MaskValue string
}

// DefaultRedactionConfig returns a configuration covering the credential
// material this SDK handles: bearer tokens, API keys, and auth headers.
func DefaultRedactionConfig() *RedactionConfig {
	return &RedactionConfig{
		SensitiveFields: []string{
			"authorization",
			"apikey", "api_key",
			"token", "access_token", "refresh_token",
			"secret", "password",
			"credential", "credentials",
		},
		MaskValue: DefaultMaskValue,
	}
}

// RedactionFilter masks sensitive field values before they are logged.
type RedactionFilter struct {
	sensitive map[string]struct{}
	mask      string
}

// NewRedactionFilter creates a filter from cfg. A nil cfg uses
// DefaultRedactionConfig.
func NewRedactionFilter(cfg *RedactionConfig) *RedactionFilter {
	if cfg == nil {
		cfg = DefaultRedactionConfig()
	}
	mask := cfg.MaskValue
	if mask == "" {
		mask = DefaultMaskValue
	}
	sensitive := make(map[string]struct{}, len(cfg.SensitiveFields))
	for _, f := range cfg.SensitiveFields {
		sensitive[strings.ToLower(f)] = struct{}{}
	}
	return &RedactionFilter{sensitive: sensitive, mask: mask}
}

// FilterString masks value when key names a sensitive field.
func (f *RedactionFilter) FilterString(key, value string) string {
	if f.isSensitive(key) {
		return f.mask
	}
	return value
}

// FilterValue masks sensitive entries inside the common shapes the SDK logs:
// plain values, map[string]string (headers), and map[string]any.
func (f *RedactionFilter) FilterValue(key string, value any) any {
	if f.isSensitive(key) {
		return f.mask
	}
	switch v := value.(type) {
	case map[string]string:
		filtered := make(map[string]string, len(v))
		for k, val := range v {
			filtered[k] = f.FilterString(k, val)
		}
		return filtered
	case map[string][]string:
		filtered := make(map[string][]string, len(v))
		for k, vals := range v {
			if f.isSensitive(k) {
				filtered[k] = []string{f.mask}
				continue
			}
			filtered[k] = vals
		}
		return filtered
	case map[string]any:
		return f.FilterFields(v)
	default:
		return value
	}
}

// FilterFields masks sensitive entries of a field map.
func (f *RedactionFilter) FilterFields(fields map[string]any) map[string]any {
	filtered := make(map[string]any, len(fields))
	for k, v := range fields {
		filtered[k] = f.FilterValue(k, v)
	}
	return filtered
}

func (f *RedactionFilter) isSensitive(key string) bool {
	_, ok := f.sensitive[strings.ToLower(key)]
	return ok
}
