package lanes_test

import (
	"reflect"
	"testing"

	"stanza/internal/catalog"
	"stanza/internal/lanes"
)

func boolPtr(v bool) *bool { return &v }

func sampleBooks() []catalog.Book {
	return []catalog.Book{
		{
			Title:     "Moby-Dick",
			Subjects:  []string{"Classics", "Adventure"},
			Audience:  "Adult",
			Fiction:   boolPtr(true),
			MediaType: "Book",
		},
		{
			Title:     "Walden",
			Subjects:  []string{"Classics"},
			Audience:  "Adult",
			Fiction:   boolPtr(false),
			MediaType: "Audiobook",
			Collections: []catalog.Collection{
				{Title: "Staff Picks", Href: "https://x/collections/staff"},
			},
		},
		{
			Title:    "Mystery Pamphlet",
			Audience: "Children",
			Fiction:  boolPtr(true),
		},
	}
}

func TestSubjectLanesFirstSeenOrder(t *testing.T) {
	res := lanes.Categorize(sampleBooks(), nil, lanes.Options{Mode: lanes.ModeSubject})

	want := []string{"Classics", "Adventure"}
	var got []string
	for _, lane := range res.Lanes {
		got = append(got, lane.Title)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("lane order %v, want %v", got, want)
	}

	// A book with N subjects appears in N lanes
	if len(res.Lanes[0].Books) != 2 {
		t.Fatalf("Classics lane has %d books, want 2", len(res.Lanes[0].Books))
	}
	if len(res.Lanes[1].Books) != 1 || res.Lanes[1].Books[0].Title != "Moby-Dick" {
		t.Fatalf("Adventure lane unexpected: %+v", res.Lanes[1].Books)
	}

	// Zero-subject books go to Uncategorized, never dropped
	if len(res.Uncategorized) != 1 || res.Uncategorized[0].Title != "Mystery Pamphlet" {
		t.Fatalf("unexpected uncategorized %+v", res.Uncategorized)
	}
}

func TestMultiSubjectBookAbsentFromUncategorized(t *testing.T) {
	books := []catalog.Book{{Title: "B", Subjects: []string{"A", "B"}}}
	res := lanes.Categorize(books, nil, lanes.Options{Mode: lanes.ModeSubject})

	if len(res.Lanes) != 2 {
		t.Fatalf("want 2 lanes, got %d", len(res.Lanes))
	}
	for _, lane := range res.Lanes {
		if len(lane.Books) != 1 || lane.Books[0].Title != "B" {
			t.Fatalf("lane %q missing book", lane.Title)
		}
	}
	if len(res.Uncategorized) != 0 {
		t.Fatalf("expected empty uncategorized, got %+v", res.Uncategorized)
	}
}

func TestFlatModeSingleUnlabeledGroup(t *testing.T) {
	res := lanes.Categorize(sampleBooks(), nil, lanes.Options{Mode: lanes.ModeFlat})
	if len(res.Lanes) != 1 || res.Lanes[0].Title != "" {
		t.Fatalf("expected one unlabeled lane, got %+v", res.Lanes)
	}
	if len(res.Lanes[0].Books) != 3 {
		t.Fatalf("expected all books, got %d", len(res.Lanes[0].Books))
	}
}

func TestAllFiltersAreNoOps(t *testing.T) {
	books := sampleBooks()
	res := lanes.Categorize(books, nil, lanes.Options{
		Mode:       lanes.ModeFlat,
		Audience:   "all",
		Fiction:    lanes.FictionAll,
		Media:      "all",
		Collection: "all",
	})
	if !reflect.DeepEqual(res.Lanes[0].Books, books) {
		t.Fatal("all-filters should be a no-op")
	}
}

func TestSequentialFilters(t *testing.T) {
	res := lanes.Categorize(sampleBooks(), nil, lanes.Options{
		Mode:     lanes.ModeFlat,
		Audience: "Adult",
		Fiction:  lanes.NonfictionOnly,
	})
	got := res.Lanes[0].Books
	if len(got) != 1 || got[0].Title != "Walden" {
		t.Fatalf("unexpected filter result %+v", got)
	}

	res = lanes.Categorize(sampleBooks(), nil, lanes.Options{
		Mode:  lanes.ModeFlat,
		Media: "audiobook",
	})
	got = res.Lanes[0].Books
	if len(got) != 1 || got[0].Title != "Walden" {
		t.Fatalf("media filter result %+v", got)
	}
}

func TestCollectionFilter(t *testing.T) {
	res := lanes.Categorize(sampleBooks(), nil, lanes.Options{
		Mode:       lanes.ModeFlat,
		Collection: "staff picks",
	})
	got := res.Lanes[0].Books
	if len(got) != 1 || got[0].Title != "Walden" {
		t.Fatalf("collection filter result %+v", got)
	}
}

func TestCategorizeIsPure(t *testing.T) {
	books := sampleBooks()
	opts := lanes.Options{Mode: lanes.ModeSubject, Audience: "Adult"}

	first := lanes.Categorize(books, nil, opts)
	second := lanes.Categorize(books, nil, opts)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical input must yield identical output")
	}
}

func TestReorderedInputSameLaneMembership(t *testing.T) {
	books := sampleBooks()
	reversed := make([]catalog.Book, len(books))
	for i, b := range books {
		reversed[len(books)-1-i] = b
	}

	membership := func(res lanes.Result) map[string]map[string]bool {
		m := make(map[string]map[string]bool)
		for _, lane := range res.Lanes {
			set := make(map[string]bool)
			for _, b := range lane.Books {
				set[b.Title] = true
			}
			m[lane.Title] = set
		}
		return m
	}

	a := lanes.Categorize(books, nil, lanes.Options{Mode: lanes.ModeSubject})
	b := lanes.Categorize(reversed, nil, lanes.Options{Mode: lanes.ModeSubject})
	if !reflect.DeepEqual(membership(a), membership(b)) {
		t.Fatal("lane membership must not depend on input order")
	}
}

func TestCollectionsUnionedByTitle(t *testing.T) {
	navLinks := []catalog.NavigationLink{
		// Same collection as Walden's metadata membership, different href
		{Title: "Staff Picks", Href: "https://y/other/staff", Rel: catalog.RelCollection},
		{Title: "New Arrivals", Href: "https://x/new", Rel: catalog.RelSubsection},
		{Title: "Unrelated", Href: "https://x/nav", Rel: catalog.RelNavigation},
	}

	res := lanes.Categorize(sampleBooks(), navLinks, lanes.Options{Mode: lanes.ModeSubject, Depth: 1})

	want := []catalog.Collection{
		{Title: "Staff Picks", Href: "https://x/collections/staff"},
		{Title: "New Arrivals", Href: "https://x/new"},
	}
	if !reflect.DeepEqual(res.Collections, want) {
		t.Fatalf("collections %+v, want %+v", res.Collections, want)
	}
}

func TestCollectionsPreservedBeyondDepthOne(t *testing.T) {
	known := []catalog.Collection{{Title: "Staff Picks", Href: "https://x/collections/staff"}}
	res := lanes.Categorize(nil, []catalog.NavigationLink{
		{Title: "Scoped Group", Href: "https://x/scoped", Rel: catalog.RelCollection},
	}, lanes.Options{Mode: lanes.ModeSubject, Depth: 2, Known: known})

	if !reflect.DeepEqual(res.Collections, known) {
		t.Fatalf("expected preserved collections, got %+v", res.Collections)
	}
}

func TestFacetSetsFromPreFilterBooks(t *testing.T) {
	books := sampleBooks()

	if got := lanes.Audiences(books); !reflect.DeepEqual(got, []string{"Adult", "Children"}) {
		t.Errorf("Audiences = %v", got)
	}
	if got := lanes.FictionValues(books); !reflect.DeepEqual(got, []string{"Fiction", "Non-Fiction"}) {
		t.Errorf("FictionValues = %v", got)
	}
	if got := lanes.MediaTypes(books); !reflect.DeepEqual(got, []string{"Book", "Audiobook"}) {
		t.Errorf("MediaTypes = %v", got)
	}
	if got := lanes.Subjects(books); !reflect.DeepEqual(got, []string{"Classics", "Adventure"}) {
		t.Errorf("Subjects = %v", got)
	}
}
