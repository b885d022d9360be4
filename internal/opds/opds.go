// Package opds parses OPDS 1 (Atom/XML) and OPDS 2 (JSON) feed documents
// into the normalized catalog model. Both parsers converge on the same
// output shape; downstream code never branches on the wire format.
package opds

import (
	"net/url"
	"strings"

	"stanza/internal/catalog"
	"stanza/internal/config"
)

// Parse selects a parser and runs it. A forced version of "1" or "2" is
// honored unconditionally; "auto" inspects the declared content type and,
// failing that, sniffs the first non-whitespace byte.
func Parse(data []byte, contentType, feedURL string, version config.FeedVersion) (*catalog.Feed, error) {
	switch version {
	case config.VersionOPDS1:
		return parseOPDS1(data, feedURL)
	case config.VersionOPDS2:
		return parseOPDS2(data, feedURL)
	}

	switch detect(data, contentType) {
	case config.VersionOPDS2:
		return parseOPDS2(data, feedURL)
	case config.VersionOPDS1:
		return parseOPDS1(data, feedURL)
	default:
		return nil, catalog.NewError(catalog.KindMalformed, feedURL, "unrecognized feed format")
	}
}

// detect picks a parser version from the declared content type, falling
// back to sniffing the first non-whitespace byte: '{' is JSON, '<' is XML.
func detect(data []byte, contentType string) config.FeedVersion {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "opds+json"), strings.Contains(ct, "application/json"):
		return config.VersionOPDS2
	case strings.Contains(ct, "atom"), strings.Contains(ct, "xml"):
		return config.VersionOPDS1
	}

	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return config.VersionOPDS2
		case '<':
			return config.VersionOPDS1
		default:
			return config.VersionAuto
		}
	}
	return config.VersionAuto
}

// resolveHref makes href absolute against the feed URL. Unparsable hrefs
// come back unchanged.
func resolveHref(feedURL, href string) string {
	if href == "" {
		return ""
	}
	base, err := url.Parse(feedURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
