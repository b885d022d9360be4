package opds

import (
	"encoding/xml"
	"strings"

	"github.com/opds-community/libopds2-go/opds1"

	"stanza/internal/catalog"
)

// OPDS 1 link relations and media types
const (
	relAcquisition    = "http://opds-spec.org/acquisition"
	relOpenAccess     = "http://opds-spec.org/acquisition/open-access"
	relBorrow         = "http://opds-spec.org/acquisition/borrow"
	relLoan           = "http://opds-spec.org/acquisition/loan"
	relImage          = "http://opds-spec.org/image"
	relImageThumbnail = "http://opds-spec.org/image/thumbnail"
	relCatalogRoot    = "http://opds-spec.org/catalog"

	typeAtomCatalog = "application/atom+xml;profile=opds-catalog"
)

// Known scheme URIs for facet-bearing categories. Fixed lookup table;
// unrecognized schemes fall through to plain subjects.
const (
	schemeAudience   = "http://schema.org/audience"
	schemeFiction    = "http://librarysimplified.org/terms/fiction/"
	schemeMediaType  = "http://schema.org/additionalType"
	mediaTermAudio   = "http://bib.schema.org/Audiobook"
	fictionTermTrue  = "http://librarysimplified.org/terms/fiction/Fiction"
	fictionTermFalse = "http://librarysimplified.org/terms/fiction/Nonfiction"
)

// parseOPDS1 walks an Atom feed's entries and top-level links into the
// normalized shape.
func parseOPDS1(data []byte, feedURL string) (*catalog.Feed, error) {
	var feed opds1.Feed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, catalog.NewError(catalog.KindMalformed, feedURL, "unparsable XML: "+err.Error())
	}

	out := &catalog.Feed{
		Title: strings.TrimSpace(feed.Title),
		URL:   feedURL,
	}

	for _, link := range feed.Links {
		classifyFeedLink(out, feedURL, link.Rel, link.Href, link.Title, link.TypeLink)
	}

	sawTitle := false
	for _, entry := range feed.Entries {
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			continue
		}
		sawTitle = true

		if book, ok := entryToBook(&entry, feedURL); ok {
			out.Books = append(out.Books, book)
			continue
		}

		// An entry with no acquisition link but a navigable link is a pure
		// navigation entry, not a book.
		if nav, ok := entryToNavLink(&entry, feedURL); ok {
			out.NavLinks = append(out.NavLinks, nav)
		}
	}

	if len(feed.Entries) > 0 && !sawTitle {
		return nil, catalog.NewError(catalog.KindParse, feedURL, "no entry carries a title")
	}

	out.Pagination = out.Pagination.Normalize()
	return out, nil
}

// classifyFeedLink routes a top-level feed link into a pagination slot, a
// navigable sub-feed, or drops it (self and unknown relations).
func classifyFeedLink(out *catalog.Feed, feedURL, rel, href, title, typeLink string) {
	abs := resolveHref(feedURL, href)
	switch rel {
	case "first":
		out.Pagination.First = abs
	case "next":
		out.Pagination.Next = abs
	case "previous", "prev":
		out.Pagination.Prev = abs
	case "last":
		out.Pagination.Last = abs
	case "subsection":
		out.NavLinks = append(out.NavLinks, catalog.NavigationLink{Title: title, Href: abs, Rel: catalog.RelSubsection})
	case "collection", "http://opds-spec.org/group":
		out.NavLinks = append(out.NavLinks, catalog.NavigationLink{Title: title, Href: abs, Rel: catalog.RelCollection})
	case relCatalogRoot:
		out.NavLinks = append(out.NavLinks, catalog.NavigationLink{Title: title, Href: abs, Rel: catalog.RelCatalogRoot})
	case "self", "start", "up", "search", "alternate", "related":
		// Not browsable content
	default:
		if strings.HasPrefix(typeLink, typeAtomCatalog) && title != "" {
			out.NavLinks = append(out.NavLinks, catalog.NavigationLink{Title: title, Href: abs, Rel: catalog.RelNavigation})
		}
	}
}

// entryToBook maps an acquisition entry to a Book. Returns false when the
// entry carries no acquisition link at all.
func entryToBook(entry *opds1.Entry, feedURL string) (catalog.Book, bool) {
	book := catalog.Book{
		Title:      strings.TrimSpace(entry.Title),
		ProviderID: strings.TrimSpace(entry.ID),
		Publisher:  strings.TrimSpace(entry.Publisher),
		Published:  strings.TrimSpace(entry.Issued),
	}

	var authors []string
	for _, author := range entry.Author {
		if name := strings.TrimSpace(author.Name); name != "" {
			authors = append(authors, name)
		}
	}
	book.Author = strings.Join(authors, ", ")

	if s := strings.TrimSpace(entry.Summary.Content); s != "" {
		book.Summary = s
	} else {
		book.Summary = strings.TrimSpace(entry.Content.Content)
	}

	applyCategories(&book, entry.Category)

	hasAcquisition := false
	for _, link := range entry.Links {
		abs := resolveHref(feedURL, link.Href)
		switch {
		case link.Rel == relImage || link.Rel == relImageThumbnail:
			// Prefer the full image over the thumbnail
			if book.CoverURL == "" || link.Rel == relImage {
				book.CoverURL = abs
			}
		case link.Rel == relOpenAccess:
			hasAcquisition = true
			addAcquisition(&book, abs, link.TypeLink, false)
		case link.Rel == relBorrow || link.Rel == relLoan:
			hasAcquisition = true
			addAcquisition(&book, abs, link.TypeLink, true)
		case strings.HasPrefix(link.Rel, relAcquisition):
			// Generic acquisition (buy, sample, plain) treated as direct
			hasAcquisition = true
			addAcquisition(&book, abs, link.TypeLink, false)
		}
	}

	return book, hasAcquisition
}

// addAcquisition records one acquisition link: the first direct link is the
// primary download, the first borrow link the borrow target, everything
// else an alternate format of the same work.
func addAcquisition(book *catalog.Book, href, mime string, borrow bool) {
	format := catalog.FormatFromMIME(mime)

	if borrow {
		if book.BorrowURL == "" {
			book.BorrowURL = href
			if book.Format == catalog.FormatUnknown {
				book.Format = format
				book.MIMEType = mime
			}
			return
		}
	} else if book.DownloadURL == "" {
		book.DownloadURL = href
		book.Format = format
		book.MIMEType = mime
		return
	}

	book.AlternativeFormats = append(book.AlternativeFormats, catalog.AlternateFormat{
		Format:      format,
		DownloadURL: href,
		MIMEType:    mime,
	})
}

// applyCategories maps category elements to subjects or facet values by
// their scheme URI.
func applyCategories(book *catalog.Book, categories []opds1.Category) {
	for _, cat := range categories {
		term := strings.TrimSpace(cat.Term)
		label := strings.TrimSpace(cat.Label)
		if label == "" {
			label = term
		}

		switch {
		case cat.Scheme == schemeAudience:
			book.Audience = label
		case strings.HasPrefix(cat.Scheme, schemeFiction) || strings.HasPrefix(term, schemeFiction):
			fiction := term == fictionTermTrue || strings.EqualFold(label, "fiction")
			if term == fictionTermFalse {
				fiction = false
			}
			book.Fiction = &fiction
		case cat.Scheme == schemeMediaType:
			if term == mediaTermAudio || strings.EqualFold(label, "audiobook") {
				book.MediaType = "Audiobook"
			} else {
				book.MediaType = "Book"
			}
		default:
			if label != "" {
				book.Subjects = append(book.Subjects, label)
			}
		}
	}
}

// entryToNavLink maps a non-acquisition entry to a navigation link
func entryToNavLink(entry *opds1.Entry, feedURL string) (catalog.NavigationLink, bool) {
	for _, link := range entry.Links {
		if !strings.HasPrefix(link.TypeLink, typeAtomCatalog) && link.Rel != "subsection" && link.Rel != "collection" && link.Rel != relCatalogRoot {
			continue
		}

		rel := catalog.RelNavigation
		switch link.Rel {
		case "subsection":
			rel = catalog.RelSubsection
		case "collection", "http://opds-spec.org/group":
			rel = catalog.RelCollection
		case relCatalogRoot:
			rel = catalog.RelCatalogRoot
		}

		return catalog.NavigationLink{
			Title: strings.TrimSpace(entry.Title),
			Href:  resolveHref(feedURL, link.Href),
			Rel:   rel,
		}, true
	}
	return catalog.NavigationLink{}, false
}
