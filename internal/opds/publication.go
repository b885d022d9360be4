package opds

import (
	"encoding/json"

	"stanza/internal/catalog"
)

// ParsePublication parses a standalone OPDS 2 publication document (or the
// loan representation acquisition chains respond with, which carries the
// same shape). A feed wrapping a single publication is also accepted.
func ParsePublication(data []byte, baseURL string) (*catalog.Book, error) {
	var pub publication2
	if err := json.Unmarshal(data, &pub); err != nil {
		return nil, catalog.NewError(catalog.KindMalformed, baseURL, "unparsable JSON: "+err.Error())
	}

	if len(pub.Links) == 0 {
		var feed feed2
		if err := json.Unmarshal(data, &feed); err == nil && len(feed.Publications) > 0 {
			pub = feed.Publications[0]
		}
	}

	book, ok := publicationToBook(&pub, baseURL)
	if !ok {
		// Loan documents may omit the title; links are what matter here
		pub.Metadata.Title = "(untitled)"
		book, ok = publicationToBook(&pub, baseURL)
		if !ok {
			return nil, catalog.NewError(catalog.KindParse, baseURL, "no publication in response")
		}
		book.Title = ""
	}
	return &book, nil
}
