// Package acquisition follows borrow/loan chains until a direct download
// link is reached.
package acquisition

import (
	"context"
	"log/slog"

	"stanza/internal/catalog"
	"stanza/internal/opds"
	"stanza/internal/transport"
)

// MaxHops bounds a borrow chain; a cyclic or misbehaving server terminates
// with ChainTooLong instead of looping.
const MaxHops = 5

// Resolver resolves a borrowable book to a direct download URL
type Resolver struct {
	fetcher *transport.Fetcher
	logger  *slog.Logger
}

// New creates a Resolver
func New(fetcher *transport.Fetcher, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{fetcher: fetcher, logger: logger}
}

// Resolve follows the borrow chain starting at borrowURL. Each hop is one
// fetch parsed as an OPDS 2 publication or loan document; the chain ends at
// the first direct download link. A missing-credential failure surfaces as
// Unauthorized so the caller can prompt, persist, and retry once.
func (r *Resolver) Resolve(ctx context.Context, borrowURL string) (string, error) {
	current := borrowURL

	for hop := 0; hop < MaxHops; hop++ {
		r.logger.Debug("acquisition hop", "url", current, "hop", hop)

		res, err := r.fetcher.Fetch(ctx, current)
		if err != nil {
			return "", err
		}
		if res.NotModified {
			// Conditional caching has no meaning mid-chain; treat as failure
			return "", catalog.NewError(catalog.KindMalformed, current, "unexpected 304 in acquisition chain")
		}

		book, err := opds.ParsePublication(res.Body, current)
		if err != nil {
			return "", err
		}

		if book.DownloadURL != "" {
			r.logger.Info("acquisition resolved", "url", book.DownloadURL, "hops", hop+1)
			return book.DownloadURL, nil
		}
		if book.BorrowURL == "" || book.BorrowURL == current {
			return "", catalog.NewError(catalog.KindParse, current, "chain response carries no acquisition link")
		}
		current = book.BorrowURL
	}

	r.logger.Warn("acquisition chain exceeded hop bound", "start", borrowURL, "bound", MaxHops)
	return "", catalog.NewError(catalog.KindChainTooLong, borrowURL, "no direct link after max hops")
}
