// Package service drives the fetch → parse → snapshot cycle consumed by
// the UI layers.
package service

import (
	"context"
	"log/slog"
	"sync"

	"stanza/internal/catalog"
	"stanza/internal/config"
	"stanza/internal/opds"
	"stanza/internal/transport"
)

// Snapshot is one coherent catalog page. Categorization is the caller's
// subsequent, separate step, so filter changes never refetch.
type Snapshot struct {
	Kind       catalog.SourceKind
	Title      string
	URL        string
	Books      []catalog.Book
	NavLinks   []catalog.NavigationLink
	Pagination catalog.Pagination
	FromCache  bool // Reused previous snapshot after a conditional 304
}

// CatalogService is the façade over transport and parsing
type CatalogService struct {
	fetcher *transport.Fetcher
	logger  *slog.Logger

	mu       sync.RWMutex
	previous map[string]*Snapshot // last good snapshot per URL, for 304 reuse
}

// New creates a CatalogService
func New(fetcher *transport.Fetcher, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{
		fetcher:  fetcher,
		logger:   logger,
		previous: make(map[string]*Snapshot),
	}
}

// Load fetches and parses one feed. The vendor override table wins over the
// caller's version preference. A parse failure yields no snapshot at all,
// never a partial one.
func (s *CatalogService) Load(ctx context.Context, url string, version config.FeedVersion) (*Snapshot, error) {
	if forced := s.fetcher.ForcedVersion(url); forced != config.VersionAuto {
		version = forced
	}

	res, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	if res.NotModified {
		s.mu.RLock()
		prev := s.previous[url]
		s.mu.RUnlock()
		if prev != nil {
			s.logger.Debug("snapshot reused", "url", url)
			cached := *prev
			cached.FromCache = true
			return &cached, nil
		}
		// A validator survived from an earlier run with no snapshot to
		// reuse; drop it and fetch unconditionally.
		s.fetcher.ForgetETag(url)
		res, err = s.fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}
	}

	feed, err := opds.Parse(res.Body, res.ContentType, url, version)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Kind:       feed.Kind(),
		Title:      feed.Title,
		URL:        url,
		Books:      feed.Books,
		NavLinks:   feed.NavLinks,
		Pagination: feed.Pagination.Normalize(),
	}

	if snap.Kind == catalog.SourceRegistry {
		snap.NavLinks = stripPaginationLinks(snap.NavLinks, snap.Pagination)
	}

	s.mu.Lock()
	s.previous[url] = snap
	s.mu.Unlock()

	s.logger.Info("catalog loaded", "url", url, "kind", snap.Kind.String(),
		"books", len(snap.Books), "nav", len(snap.NavLinks))

	return snap, nil
}

// NavChildren performs one fetch-and-parse cycle for a navigation-tree
// expansion and returns only the child links.
func (s *CatalogService) NavChildren(ctx context.Context, url string, version config.FeedVersion) ([]catalog.NavigationLink, error) {
	snap, err := s.Load(ctx, url, version)
	if err != nil {
		return nil, err
	}
	return snap.NavLinks, nil
}

// stripPaginationLinks removes registry navigation links that duplicate a
// pagination slot; otherwise paging controls would reappear as browsable
// entries.
func stripPaginationLinks(links []catalog.NavigationLink, p catalog.Pagination) []catalog.NavigationLink {
	out := make([]catalog.NavigationLink, 0, len(links))
	for _, link := range links {
		if p.Has(link.Href) {
			continue
		}
		out = append(out, link)
	}
	return out
}
