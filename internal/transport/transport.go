// Package transport performs single feed fetches: credential injection,
// conditional requests, and a one-shot relay fallback for cross-origin
// blocked hosts.
package transport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stanza/internal/catalog"
	"stanza/internal/config"
	"stanza/internal/store"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Stanza/1.0"
)

// vendorForceV1 lists host suffixes whose OPDS 2 responses omit the
// navigation links needed for browsing. Requests to these hosts are always
// made as OPDS 1. Compatibility workaround, not a heuristic.
var vendorForceV1 = []string{
	"feedbooks.com",
}

// Result is a successful fetch outcome
type Result struct {
	Body        []byte
	ContentType string
	ETag        string
	NotModified bool // 304; Body is empty, caller reuses its last snapshot
	ViaRelay    bool // Response came through the relay fallback
}

// Options configures a Fetcher
type Options struct {
	Client          *http.Client
	Credentials     store.CredentialStore
	ETags           store.ETagStore
	RelayEndpoint   string   // "" disables the relay fallback
	ForceV1Suffixes []string // Extra vendor suffixes from config
	Logger          *slog.Logger
}

// Fetcher performs feed fetches against remote catalogs
type Fetcher struct {
	client  *http.Client
	creds   store.CredentialStore
	etags   store.ETagStore
	relay   string
	forceV1 []string
	logger  *slog.Logger
}

// New creates a Fetcher
func New(opts Options) *Fetcher {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	creds := opts.Credentials
	if creds == nil {
		creds = store.NewMemory()
	}
	etags := opts.ETags
	if etags == nil {
		etags = store.NewMemory()
	}
	return &Fetcher{
		client:  client,
		creds:   creds,
		etags:   etags,
		relay:   opts.RelayEndpoint,
		forceV1: append(append([]string(nil), vendorForceV1...), opts.ForceV1Suffixes...),
		logger:  logger,
	}
}

// ForcedVersion reports the protocol version override for a URL's host, or
// VersionAuto when the host carries no override.
func (f *Fetcher) ForcedVersion(rawURL string) config.FeedVersion {
	host := store.NormalizeHost(rawURL)
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	for _, suffix := range f.forceV1 {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return config.VersionOPDS1
		}
	}
	return config.VersionAuto
}

// ForgetETag drops the stored validator for a URL, forcing the next fetch
// to be unconditional.
func (f *Fetcher) ForgetETag(rawURL string) {
	_ = f.etags.SetETag(rawURL, "")
}

// Fetch performs one feed fetch. Credentials known for the URL's host are
// attached, a cached ETag makes the request conditional, and a network
// failure or cross-origin block is retried exactly once through the relay.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	host := store.NormalizeHost(rawURL)
	cred, hasCred := f.creds.Credential(host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, catalog.NewError(catalog.KindNetwork, rawURL, "invalid URL: "+err.Error())
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/atom+xml, application/opds+json, application/json, application/xml")
	if hasCred {
		req.SetBasicAuth(cred.Username, cred.Secret)
	}
	if etag, ok := f.etags.ETag(rawURL); ok {
		req.Header.Set("If-None-Match", etag)
	}

	f.logger.Debug("feed request", "url", rawURL, "auth", hasCred)

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("feed request failed, trying relay", "url", rawURL, "error", err)
		return f.fetchViaRelay(ctx, rawURL)
	}
	defer resp.Body.Close()

	// A 403 on a host we hold no credentials for is indistinguishable from
	// a cross-origin block; give the relay one chance before classifying.
	if resp.StatusCode == http.StatusForbidden && !hasCred && f.relay != "" {
		io.Copy(io.Discard, resp.Body)
		f.logger.Warn("feed request blocked, trying relay", "url", rawURL, "status", resp.StatusCode)
		return f.fetchViaRelay(ctx, rawURL)
	}

	return f.handleResponse(resp, rawURL, false)
}

// fetchViaRelay reissues the request through the CORS relay endpoint. No
// second retry: a relay failure is final.
func (f *Fetcher) fetchViaRelay(ctx context.Context, rawURL string) (*Result, error) {
	if f.relay == "" {
		return nil, catalog.NewError(catalog.KindNetwork, rawURL, "feed unreachable")
	}

	relayURL := f.relay + url.QueryEscape(rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, relayURL, nil)
	if err != nil {
		return nil, catalog.NewError(catalog.KindNetwork, rawURL, "invalid relay URL: "+err.Error())
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Error("relay request failed", "url", rawURL, "error", err)
		return nil, catalog.NewError(catalog.KindNetwork, rawURL, "feed unreachable (relay fallback failed)")
	}
	defer resp.Body.Close()

	return f.handleResponse(resp, rawURL, true)
}

// handleResponse classifies the outcome and captures the validator
func (f *Fetcher) handleResponse(resp *http.Response, rawURL string, viaRelay bool) (*Result, error) {
	if resp.StatusCode == http.StatusNotModified {
		f.logger.Debug("feed not modified", "url", rawURL)
		return &Result{NotModified: true, ViaRelay: viaRelay}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		f.logger.Warn("feed request error", "url", rawURL, "status", resp.StatusCode)
		return nil, catalog.StatusError(resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, catalog.NewError(catalog.KindNetwork, rawURL, "reading response: "+err.Error())
	}
	if len(body) == 0 {
		return nil, catalog.NewError(catalog.KindMalformed, rawURL, "empty response body")
	}

	if etag := resp.Header.Get("ETag"); etag != "" {
		if err := f.etags.SetETag(rawURL, etag); err != nil {
			f.logger.Warn("failed to store etag", "url", rawURL, "error", err)
		}
	}

	f.logger.Debug("feed fetched", "url", rawURL, "bytes", len(body), "relay", viaRelay)

	return &Result{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		ETag:        resp.Header.Get("ETag"),
		ViaRelay:    viaRelay,
	}, nil
}
