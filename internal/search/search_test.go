package search_test

import (
	"testing"

	"stanza/internal/catalog"
	"stanza/internal/search"
)

var books = []catalog.Book{
	{Title: "Moby-Dick", Author: "Herman Melville"},
	{Title: "Walden", Author: "Henry David Thoreau"},
	{Title: "The Dick Gibson Show", Author: "Stanley Elkin"},
}

func TestFilterEmptyQueryIsIdentity(t *testing.T) {
	got := search.Filter("   ", books)
	if len(got) != len(books) {
		t.Fatalf("empty query filtered to %d books", len(got))
	}
}

func TestFilterMatchesTitle(t *testing.T) {
	got := search.Filter("walden", books)
	if len(got) != 1 || got[0].Title != "Walden" {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestFilterMatchesAuthor(t *testing.T) {
	got := search.Filter("melville", books)
	if len(got) != 1 || got[0].Title != "Moby-Dick" {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestTitlesRanked(t *testing.T) {
	matches := search.Titles("dick", books)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	for _, m := range matches {
		if m.Index != 0 && m.Index != 2 {
			t.Fatalf("unexpected match index %d", m.Index)
		}
		if len(m.MatchedIndexes) == 0 {
			t.Fatal("expected matched positions for highlighting")
		}
	}
}
