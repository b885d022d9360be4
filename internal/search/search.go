// Package search ranks books against a typed filter query.
package search

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"stanza/internal/catalog"
)

// Match is one ranked hit
type Match struct {
	Index          int   // Index into the searched book list
	Score          int   // Higher is better (sahilm/fuzzy semantics)
	MatchedIndexes []int // Character positions for highlighting
}

// bookIndex implements fuzzy.Source over pre-lowered titles
type bookIndex struct {
	lowerTitles []string
}

func (idx *bookIndex) String(i int) string { return idx.lowerTitles[i] }
func (idx *bookIndex) Len() int            { return len(idx.lowerTitles) }

// Titles fuzzy-matches query against book titles (and authors, so "melville"
// finds Moby-Dick). Results come back best-first.
func Titles(query string, books []catalog.Book) []Match {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return nil
	}

	idx := &bookIndex{lowerTitles: make([]string, len(books))}
	for i, b := range books {
		idx.lowerTitles[i] = strings.ToLower(b.Title + " " + b.Author)
	}

	results := fuzzy.FindFrom(query, idx)
	out := make([]Match, 0, len(results))
	for _, r := range results {
		out = append(out, Match{Index: r.Index, Score: r.Score, MatchedIndexes: r.MatchedIndexes})
	}
	return out
}

// Filter returns the books matching query, ranked best-first. An empty
// query returns the input unchanged.
func Filter(query string, books []catalog.Book) []catalog.Book {
	if strings.TrimSpace(query) == "" {
		return books
	}
	matches := Titles(query, books)
	out := make([]catalog.Book, 0, len(matches))
	for _, m := range matches {
		out = append(out, books[m.Index])
	}
	return out
}
