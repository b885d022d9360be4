// Package store persists the small key/value state owned by the catalog
// engine: per-host credentials and per-URL ETag validators.
package store

import (
	"net/url"
	"strings"
)

// Credential is a basic-auth style secret for one host
type Credential struct {
	Username string `json:"username"`
	Secret   string `json:"secret"`
}

// CredentialStore maps a case-normalized host to at most one credential.
// Last write wins.
type CredentialStore interface {
	Credential(host string) (Credential, bool)
	SetCredential(host string, cred Credential) error
	DeleteCredential(host string) error
	Hosts() []string
}

// ETagStore maps a feed URL to its last-seen validator. Entries never
// expire, they are only overwritten.
type ETagStore interface {
	ETag(url string) (string, bool)
	SetETag(url, etag string) error
}

/// NormalizeHost extracts the credential key for a URL: the authority
// component, lowercased. Returns "" for unparsable input.
func NormalizeHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
