package opds

import (
	"encoding/json"
	"strings"

	"stanza/internal/catalog"
)

// parseOPDS2 walks a JSON feed's publications and navigation arrays into
// the normalized shape.
func parseOPDS2(data []byte, feedURL string) (*catalog.Feed, error) {
	var feed feed2
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, catalog.NewError(catalog.KindMalformed, feedURL, "unparsable JSON: "+err.Error())
	}

	out := &catalog.Feed{
		Title: strings.TrimSpace(feed.Metadata.Title),
		URL:   feedURL,
	}

	for _, link := range feed.Links {
		for _, rel := range link.Rel {
			classifyFeedLink(out, feedURL, rel, link.Href, link.Title, link.Type)
		}
	}

	for _, nav := range feed.Navigation {
		title := strings.TrimSpace(nav.Title)
		if title == "" || nav.Href == "" {
			continue
		}
		out.NavLinks = append(out.NavLinks, catalog.NavigationLink{
			Title: title,
			Href:  resolveHref(feedURL, nav.Href),
			Rel:   navRel(&nav),
		})
	}

	sawTitle := false
	for _, pub := range feed.Publications {
		book, ok := publicationToBook(&pub, feedURL)
		if !ok {
			continue
		}
		sawTitle = true
		out.Books = append(out.Books, book)
	}

	if len(feed.Publications) > 0 && !sawTitle {
		return nil, catalog.NewError(catalog.KindParse, feedURL, "no publication carries a title")
	}

	out.Pagination = out.Pagination.Normalize()
	return out, nil
}

// navRel maps a navigation item's relations onto the normalized link kind
func navRel(link *link2) catalog.LinkRel {
	switch {
	case link.hasRel(relCatalogRoot):
		return catalog.RelCatalogRoot
	case link.hasRel("collection"):
		return catalog.RelCollection
	case link.hasRel("subsection"):
		return catalog.RelSubsection
	default:
		return catalog.RelNavigation
	}
}

// publicationToBook maps one publication to a Book. Returns false for
// publications without a title.
func publicationToBook(pub *publication2, feedURL string) (catalog.Book, bool) {
	title := strings.TrimSpace(string(pub.Metadata.Title))
	if title == "" {
		return catalog.Book{}, false
	}

	book := catalog.Book{
		Title:       title,
		Author:      strings.Join(pub.Metadata.Author, ", "),
		Summary:     strings.TrimSpace(pub.Metadata.Description),
		ProviderID:  strings.TrimSpace(pub.Metadata.Identifier),
		Published:   strings.TrimSpace(pub.Metadata.Published),
		Audience:    strings.TrimSpace(string(pub.Metadata.Audience)),
		Fiction:     pub.Metadata.Fiction,
		Subjects:    append([]string(nil), pub.Metadata.Subject...),
		MediaType:   mediaTypeFromRDF(pub.Metadata.Type),
		Collections: belongsToCollections(pub.Metadata.BelongsTo, feedURL),
	}
	if len(pub.Metadata.Publisher) > 0 {
		book.Publisher = pub.Metadata.Publisher[0]
	}

	for _, img := range pub.Images {
		book.CoverURL = resolveHref(feedURL, img.Href)
		break
	}

	for _, link := range pub.Links {
		abs := resolveHref(feedURL, link.Href)
		switch {
		case link.hasRel(relImage) || link.hasRel(relImageThumbnail):
			if book.CoverURL == "" {
				book.CoverURL = abs
			}
		case link.hasRel(relOpenAccess):
			addAcquisition(&book, abs, acquiredType(&link), false)
		case link.hasRel(relBorrow) || link.hasRel(relLoan):
			addAcquisition(&book, abs, acquiredType(&link), true)
		case hasAcquisitionRel(&link):
			addAcquisition(&book, abs, acquiredType(&link), false)
		}
	}

	return book, true
}

// hasAcquisitionRel reports whether any relation is an acquisition variant
func hasAcquisitionRel(link *link2) bool {
	for _, rel := range link.Rel {
		if strings.HasPrefix(rel, relAcquisition) {
			return true
		}
	}
	return false
}

// acquiredType returns the media type the chain ultimately yields: the
// deepest indirectAcquisition type when present, else the link's own type.
func acquiredType(link *link2) string {
	if link.Properties == nil || len(link.Properties.IndirectAcquisition) == 0 {
		return link.Type
	}
	node := link.Properties.IndirectAcquisition[0]
	for len(node.Child) > 0 {
		node = node.Child[0]
	}
	if node.Type != "" {
		return node.Type
	}
	return link.Type
}

// mediaTypeFromRDF maps a publication's @type to a display media type
func mediaTypeFromRDF(rdf string) string {
	switch rdf {
	case "":
		return ""
	case mediaTermAudio, "http://schema.org/Audiobook":
		return "Audiobook"
	default:
		return "Book"
	}
}

// belongsToCollections extracts collection memberships
func belongsToCollections(bt *belongsTo2, feedURL string) []catalog.Collection {
	if bt == nil {
		return nil
	}
	var out []catalog.Collection
	for _, entry := range bt.Collection {
		col := catalog.Collection{Title: strings.TrimSpace(entry.Name)}
		if col.Title == "" {
			continue
		}
		for _, link := range entry.Links {
			col.Href = resolveHref(feedURL, link.Href)
			break
		}
		out = append(out, col)
	}
	return out
}
