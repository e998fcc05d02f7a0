// Package auth obtains and caches bearer credentials from the identity
// endpoint and attaches them to outbound requests.
package auth

import "time"

// Credential is a cached bearer token and its metadata. Credentials are
// value objects: a refresh produces a new Credential that atomically
// replaces the old one, so concurrent readers never observe a partial
// update.
type Credential struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	// Expiry is the absolute instant the access token stops being valid.
	Expiry time.Time
}

// Expired reports whether the credential is unusable at the given instant.
// A nil credential counts as expired.
func (c *Credential) Expired(now time.Time) bool {
	if c == nil {
		return true
	}
	return !now.Before(c.Expiry)
}
