package catalog

// LinkRel classifies a navigation link's relation to the current feed
type LinkRel int

const (
	RelNavigation LinkRel = iota // Plain navigation entry
	RelSubsection                // Drill-down into a sub-feed
	RelCollection                // Curated collection sub-feed
	RelCatalogRoot               // Points at another catalog's root feed
)

// String returns a human-readable representation of the relation
func (r LinkRel) String() string {
	switch r {
	case RelSubsection:
		return "subsection"
	case RelCollection:
		return "collection"
	case RelCatalogRoot:
		return "catalog"
	default:
		return "navigation"
	}
}

// NavigationLink is one browsable pointer out of a feed.
//
// Expansion state lives in the navtree package; the parser only fills the
// three descriptive fields.
type NavigationLink struct {
	Title string  // Display title
	Href  string  // Target feed URL, absolute
	Rel   LinkRel // Relation of the target to the current feed
}

// Pagination carries the optional paging links of a feed.
// All four slots are independent and optional.
type Pagination struct {
	First string
	Prev  string
	Next  string
	Last  string
}

// IsZero reports whether no paging links are present
func (p Pagination) IsZero() bool {
	return p.First == "" && p.Prev == "" && p.Next == "" && p.Last == ""
}

// Normalize enforces the paging invariant: a feed that sets next == prev is
// malformed and is treated as next-only.
func (p Pagination) Normalize() Pagination {
	if p.Next != "" && p.Next == p.Prev {
		p.Prev = ""
	}
	return p
}

// Has reports whether the given URL occupies one of the paging slots
func (p Pagination) Has(url string) bool {
	if url == "" {
		return false
	}
	return url == p.First || url == p.Prev || url == p.Next || url == p.Last
}

// SourceKind distinguishes a book-bearing catalog feed from a registry feed
// whose entries are entirely navigational.
type SourceKind int

const (
	SourceCatalog SourceKind = iota
	SourceRegistry
)

// String returns a human-readable representation of the source kind
func (k SourceKind) String() string {
	if k == SourceRegistry {
		return "registry"
	}
	return "catalog"
}

// Feed is the normalized result of parsing one fetched document. Both wire
// formats converge on this shape; downstream code never branches on the
// source format.
type Feed struct {
	Title      string
	URL        string // Absolute URL the document was fetched from
	Books      []Book
	NavLinks   []NavigationLink
	Pagination Pagination
}

// Kind classifies the feed as a catalog or a registry
func (f *Feed) Kind() SourceKind {
	if len(f.Books) == 0 && len(f.NavLinks) > 0 {
		return SourceRegistry
	}
	return SourceCatalog
}
