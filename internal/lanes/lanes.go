// Package lanes groups a normalized book list into display lanes. Every
// function here is pure: identical input yields identical output, and no
// state is held between calls.
package lanes

import (
	"strings"

	"stanza/internal/catalog"
)

// Mode selects the grouping strategy
type Mode int

const (
	// ModeSubject groups books into one lane per distinct subject
	ModeSubject Mode = iota
	// ModeFlat returns the filtered list as a single unlabeled group
	ModeFlat
)

// FictionFilter narrows by the fiction/non-fiction tag
type FictionFilter int

const (
	FictionAll FictionFilter = iota
	FictionOnly
	NonfictionOnly
)

// Options carries the categorization inputs beyond the book list
type Options struct {
	Mode       Mode
	Audience   string        // "" or "all" disables the filter
	Fiction    FictionFilter
	Media      string        // "" or "all" disables the filter
	Collection string        // "" or "all" disables the filter

	// Depth is the navigation depth of the current feed; root collection
	// discovery only runs at depth <= 1.
	Depth int

	// Known preserves root collections discovered before drilling deeper.
	Known []catalog.Collection
}

// Lane is one labeled group of books. Lanes are rebuilt fresh on every
// pass, never mutated in place.
type Lane struct {
	Title string
	Books []catalog.Book
}

// Result is one categorization pass over a snapshot
type Result struct {
	Lanes         []Lane
	Collections   []catalog.Collection
	Uncategorized []catalog.Book
}

// Categorize filters books and groups them into lanes.
//
// Filters apply as sequential narrowing passes (audience, fiction, media,
// collection); each predicate is independent per book, so the final set is
// filter-commutative. Lane order follows first-seen subject order in the
// filtered list; a book with N subjects appears in N lanes; books with no
// subject land in Uncategorized.
func Categorize(books []catalog.Book, navLinks []catalog.NavigationLink, opts Options) Result {
	filtered := filter(books, opts)

	var res Result
	res.Collections = collections(books, navLinks, opts)

	if opts.Mode == ModeFlat {
		res.Lanes = []Lane{{Books: filtered}}
		return res
	}

	laneIndex := make(map[string]int)
	for _, book := range filtered {
		if len(book.Subjects) == 0 {
			res.Uncategorized = append(res.Uncategorized, book)
			continue
		}
		for _, subject := range book.Subjects {
			i, ok := laneIndex[subject]
			if !ok {
				i = len(res.Lanes)
				laneIndex[subject] = i
				res.Lanes = append(res.Lanes, Lane{Title: subject})
			}
			res.Lanes[i].Books = append(res.Lanes[i].Books, book)
		}
	}

	if len(res.Lanes) == 0 && len(res.Uncategorized) > 0 {
		// Nothing carried a subject; fall back to one unlabeled group
		res.Lanes = []Lane{{Books: res.Uncategorized}}
		res.Uncategorized = nil
	}

	return res
}

// filter applies the audience, fiction, media, and collection predicates in
// sequence.
func filter(books []catalog.Book, opts Options) []catalog.Book {
	out := books

	if active(opts.Audience) {
		out = keep(out, func(b catalog.Book) bool {
			return strings.EqualFold(b.Audience, opts.Audience)
		})
	}

	if opts.Fiction != FictionAll {
		out = keep(out, func(b catalog.Book) bool {
			if b.Fiction == nil {
				return false
			}
			return *b.Fiction == (opts.Fiction == FictionOnly)
		})
	}

	if active(opts.Media) {
		out = keep(out, func(b catalog.Book) bool {
			return strings.EqualFold(b.MediaType, opts.Media)
		})
	}

	if active(opts.Collection) {
		out = keep(out, func(b catalog.Book) bool {
			for _, col := range b.Collections {
				if strings.EqualFold(col.Title, opts.Collection) {
					return true
				}
			}
			return false
		})
	}

	// Callers may re-slice the result; never alias the input backing array
	if len(out) == len(books) {
		out = append([]catalog.Book(nil), out...)
	}
	return out
}

func active(filter string) bool {
	return filter != "" && !strings.EqualFold(filter, "all")
}

func keep(books []catalog.Book, pred func(catalog.Book) bool) []catalog.Book {
	out := make([]catalog.Book, 0, len(books))
	for _, b := range books {
		if pred(b) {
			out = append(out, b)
		}
	}
	return out
}

// collections unions collection memberships from book metadata with
// collection/subsection navigation links. The merge key is the collection
// title, not the href: the same curated collection may be exposed via
// different feed URLs across contexts. Known limitation: two unrelated
// collections sharing a display name merge into one.
func collections(books []catalog.Book, navLinks []catalog.NavigationLink, opts Options) []catalog.Collection {
	if opts.Depth > 1 {
		// Scoped feed: recomputing would lose the global collection list
		return append([]catalog.Collection(nil), opts.Known...)
	}

	index := make(map[string]int)
	var out []catalog.Collection

	add := func(col catalog.Collection) {
		key := strings.ToLower(col.Title)
		if key == "" {
			return
		}
		if i, ok := index[key]; ok {
			if out[i].Href == "" {
				out[i].Href = col.Href
			}
			return
		}
		index[key] = len(out)
		out = append(out, col)
	}

	for _, book := range books {
		for _, col := range book.Collections {
			add(col)
		}
	}
	for _, link := range navLinks {
		if link.Rel == catalog.RelCollection || link.Rel == catalog.RelSubsection {
			add(catalog.Collection{Title: link.Title, Href: link.Href})
		}
	}

	return out
}

// === Facet set builders ===
//
// These run over the pre-filter book list, so a facet control never
// disables the option the user is currently filtering by. Values come back
// in first-seen order.

// Audiences returns the distinct audience tags present in books
func Audiences(books []catalog.Book) []string {
	return distinct(books, func(b catalog.Book) []string {
		if b.Audience == "" {
			return nil
		}
		return []string{b.Audience}
	})
}

// FictionValues returns the fiction/non-fiction labels present in books
func FictionValues(books []catalog.Book) []string {
	return distinct(books, func(b catalog.Book) []string {
		if label := b.FictionLabel(); label != "" {
			return []string{label}
		}
		return nil
	})
}

// MediaTypes returns the distinct media types present in books
func MediaTypes(books []catalog.Book) []string {
	return distinct(books, func(b catalog.Book) []string {
		if b.MediaType == "" {
			return nil
		}
		return []string{b.MediaType}
	})
}

// Subjects returns the distinct subjects present in books
func Subjects(books []catalog.Book) []string {
	return distinct(books, func(b catalog.Book) []string { return b.Subjects })
}

func distinct(books []catalog.Book, values func(catalog.Book) []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, b := range books {
		for _, v := range values(b) {
			key := strings.ToLower(v)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
