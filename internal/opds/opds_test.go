package opds

import (
	"testing"

	"stanza/internal/catalog"
	"stanza/internal/config"
)

const feedURL = "https://books.example.com/opds/root"

// atomFeed and jsonFeed describe the same logical catalog in both wire
// formats: two books (one open-access EPUB with an alternate PDF, one
// borrowable audiobook) and one navigation entry.
const atomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opds="http://opds-spec.org/2010/catalog">
  <id>urn:example:root</id>
  <title>Example Shelf</title>
  <updated>2024-03-01T00:00:00Z</updated>
  <link rel="self" href="/opds/root" type="application/atom+xml;profile=opds-catalog"/>
  <link rel="next" href="/opds/root?page=2" type="application/atom+xml;profile=opds-catalog"/>
  <entry>
    <id>urn:example:moby</id>
    <title>Moby-Dick</title>
    <author><name>Herman Melville</name></author>
    <summary>A whale of a tale.</summary>
    <category scheme="http://librarysimplified.org/terms/genres/Simplified/" term="Classics" label="Classics"/>
    <category scheme="http://schema.org/audience" term="Adult" label="Adult"/>
    <category scheme="http://librarysimplified.org/terms/fiction/" term="http://librarysimplified.org/terms/fiction/Fiction" label="Fiction"/>
    <link rel="http://opds-spec.org/image" href="/covers/moby.jpg" type="image/jpeg"/>
    <link rel="http://opds-spec.org/acquisition/open-access" href="/files/moby.epub" type="application/epub+zip"/>
    <link rel="http://opds-spec.org/acquisition/open-access" href="/files/moby.pdf" type="application/pdf"/>
  </entry>
  <entry>
    <id>urn:example:walden</id>
    <title>Walden</title>
    <author><name>Henry David Thoreau</name></author>
    <summary>Life in the woods.</summary>
    <link rel="http://opds-spec.org/acquisition/borrow" href="/borrow/walden" type="application/audiobook+zip"/>
  </entry>
  <entry>
    <id>urn:example:scifi</id>
    <title>Science Fiction</title>
    <link rel="subsection" href="/opds/scifi" type="application/atom+xml;profile=opds-catalog"/>
  </entry>
</feed>`

const jsonFeed = `{
  "metadata": {"title": "Example Shelf"},
  "links": [
    {"rel": "self", "href": "/opds/root", "type": "application/opds+json"},
    {"rel": "next", "href": "/opds/root?page=2", "type": "application/opds+json"}
  ],
  "navigation": [
    {"rel": "subsection", "href": "/opds/scifi", "title": "Science Fiction"}
  ],
  "publications": [
    {
      "metadata": {
        "title": "Moby-Dick",
        "identifier": "urn:example:moby",
        "author": {"name": "Herman Melville"},
        "description": "A whale of a tale.",
        "subject": ["Classics"],
        "audience": "Adult",
        "fiction": true
      },
      "images": [{"href": "/covers/moby.jpg", "type": "image/jpeg"}],
      "links": [
        {"rel": "http://opds-spec.org/acquisition/open-access", "href": "/files/moby.epub", "type": "application/epub+zip"},
        {"rel": "http://opds-spec.org/acquisition/open-access", "href": "/files/moby.pdf", "type": "application/pdf"}
      ]
    },
    {
      "metadata": {
        "title": "Walden",
        "identifier": "urn:example:walden",
        "author": "Henry David Thoreau",
        "description": "Life in the woods."
      },
      "links": [
        {"rel": "http://opds-spec.org/acquisition/borrow", "href": "/borrow/walden", "type": "application/audiobook+zip"}
      ]
    }
  ]
}`

func parseBoth(t *testing.T) (atom, js *catalog.Feed) {
	t.Helper()
	atom, err := Parse([]byte(atomFeed), "application/atom+xml", feedURL, config.VersionAuto)
	if err != nil {
		t.Fatalf("parse atom: %v", err)
	}
	js, err = Parse([]byte(jsonFeed), "application/opds+json", feedURL, config.VersionAuto)
	if err != nil {
		t.Fatalf("parse json: %v", err)
	}
	return atom, js
}

func TestParsersConvergeOnSameCatalog(t *testing.T) {
	atom, js := parseBoth(t)

	if atom.Title != js.Title {
		t.Fatalf("titles diverge: %q vs %q", atom.Title, js.Title)
	}
	if len(atom.Books) != 2 || len(js.Books) != 2 {
		t.Fatalf("book counts: atom=%d json=%d", len(atom.Books), len(js.Books))
	}

	for i := range atom.Books {
		a, j := atom.Books[i], js.Books[i]
		if a.Title != j.Title {
			t.Errorf("book %d title: %q vs %q", i, a.Title, j.Title)
		}
		if a.Author != j.Author {
			t.Errorf("book %d author: %q vs %q", i, a.Author, j.Author)
		}
		if a.DownloadURL != j.DownloadURL {
			t.Errorf("book %d download: %q vs %q", i, a.DownloadURL, j.DownloadURL)
		}
		if a.BorrowURL != j.BorrowURL {
			t.Errorf("book %d borrow: %q vs %q", i, a.BorrowURL, j.BorrowURL)
		}
		if a.Format != j.Format {
			t.Errorf("book %d format: %v vs %v", i, a.Format, j.Format)
		}
	}

	if len(atom.NavLinks) != 1 || len(js.NavLinks) != 1 {
		t.Fatalf("nav counts: atom=%d json=%d", len(atom.NavLinks), len(js.NavLinks))
	}
	if atom.NavLinks[0] != js.NavLinks[0] {
		t.Fatalf("nav links diverge: %+v vs %+v", atom.NavLinks[0], js.NavLinks[0])
	}
	if atom.Pagination != js.Pagination {
		t.Fatalf("pagination diverges: %+v vs %+v", atom.Pagination, js.Pagination)
	}
}

func TestParseAtomDetails(t *testing.T) {
	feed, _ := parseBoth(t)

	moby := feed.Books[0]
	if moby.DownloadURL != "https://books.example.com/files/moby.epub" {
		t.Errorf("unexpected download URL %q", moby.DownloadURL)
	}
	if moby.Format != catalog.FormatEPUB {
		t.Errorf("unexpected format %v", moby.Format)
	}
	if len(moby.AlternativeFormats) != 1 || moby.AlternativeFormats[0].Format != catalog.FormatPDF {
		t.Errorf("unexpected alternates %+v", moby.AlternativeFormats)
	}
	if moby.CoverURL != "https://books.example.com/covers/moby.jpg" {
		t.Errorf("unexpected cover %q", moby.CoverURL)
	}
	if moby.Audience != "Adult" {
		t.Errorf("unexpected audience %q", moby.Audience)
	}
	if moby.Fiction == nil || !*moby.Fiction {
		t.Errorf("expected fiction=true, got %v", moby.Fiction)
	}
	if len(moby.Subjects) != 1 || moby.Subjects[0] != "Classics" {
		t.Errorf("unexpected subjects %v", moby.Subjects)
	}

	walden := feed.Books[1]
	if !walden.Borrowable() {
		t.Error("expected walden to be borrowable")
	}
	if walden.Format != catalog.FormatAudiobook {
		t.Errorf("unexpected borrow format %v", walden.Format)
	}

	if feed.NavLinks[0].Rel != catalog.RelSubsection {
		t.Errorf("unexpected nav rel %v", feed.NavLinks[0].Rel)
	}
	if feed.Pagination.Next != "https://books.example.com/opds/root?page=2" {
		t.Errorf("unexpected next %q", feed.Pagination.Next)
	}
}

func TestDetectByContentTypeAndSniffing(t *testing.T) {
	cases := []struct {
		name        string
		data        string
		contentType string
		want        config.FeedVersion
	}{
		{"declared json", "{}", "application/opds+json", config.VersionOPDS2},
		{"declared atom", "<feed/>", "application/atom+xml;profile=opds-catalog", config.VersionOPDS1},
		{"sniff json", "  \n\t{\"metadata\":{}}", "application/octet-stream", config.VersionOPDS2},
		{"sniff xml", "\n <?xml version=\"1.0\"?><feed/>", "", config.VersionOPDS1},
		{"garbage", "hello", "", config.VersionAuto},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := detect([]byte(tc.data), tc.contentType); got != tc.want {
				t.Fatalf("detect = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestForcedVersionWinsOverContentType(t *testing.T) {
	// JSON content type, but the caller forces the Atom parser: the bytes
	// are not XML, so a Malformed error proves the right parser ran.
	_, err := Parse([]byte(jsonFeed), "application/opds+json", feedURL, config.VersionOPDS1)
	if !catalog.IsKind(err, catalog.KindMalformed) {
		t.Fatalf("expected malformed from forced v1 parser, got %v", err)
	}
}

func TestParseMalformedInput(t *testing.T) {
	if _, err := Parse([]byte("<feed><entry>"), "application/atom+xml", feedURL, config.VersionAuto); !catalog.IsKind(err, catalog.KindMalformed) {
		t.Errorf("truncated XML: got %v", err)
	}
	if _, err := Parse([]byte(`{"publications": [`), "application/opds+json", feedURL, config.VersionAuto); !catalog.IsKind(err, catalog.KindMalformed) {
		t.Errorf("truncated JSON: got %v", err)
	}
	if _, err := Parse([]byte("plain text"), "", feedURL, config.VersionAuto); !catalog.IsKind(err, catalog.KindMalformed) {
		t.Errorf("undetectable bytes: got %v", err)
	}
}

func TestParseErrorWhenEveryEntryUntitled(t *testing.T) {
	data := `{"metadata":{"title":"t"},"publications":[{"metadata":{"identifier":"x"}}]}`
	_, err := Parse([]byte(data), "application/opds+json", feedURL, config.VersionAuto)
	if !catalog.IsKind(err, catalog.KindParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestPaginationNextEqualsPrevNormalized(t *testing.T) {
	data := `{
	  "metadata": {"title": "t"},
	  "links": [
	    {"rel": "next", "href": "/page2"},
	    {"rel": "previous", "href": "/page2"}
	  ],
	  "navigation": [{"rel": "subsection", "href": "/sub", "title": "Sub"}]
	}`
	feed, err := Parse([]byte(data), "application/opds+json", feedURL, config.VersionAuto)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if feed.Pagination.Next == "" {
		t.Fatal("expected next retained")
	}
	if feed.Pagination.Prev != "" {
		t.Fatalf("expected prev cleared, got %q", feed.Pagination.Prev)
	}
}

func TestCollectionsFromBelongsTo(t *testing.T) {
	data := `{
	  "metadata": {"title": "t"},
	  "publications": [{
	    "metadata": {
	      "title": "Book",
	      "belongsTo": {"collection": {"name": "Staff Picks", "links": [{"href": "/collections/staff"}]}}
	    },
	    "links": [{"rel": "http://opds-spec.org/acquisition/open-access", "href": "/b.epub", "type": "application/epub+zip"}]
	  }]
	}`
	feed, err := Parse([]byte(data), "application/opds+json", feedURL, config.VersionAuto)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cols := feed.Books[0].Collections
	if len(cols) != 1 || cols[0].Title != "Staff Picks" {
		t.Fatalf("unexpected collections %+v", cols)
	}
	if cols[0].Href != "https://books.example.com/collections/staff" {
		t.Fatalf("unexpected collection href %q", cols[0].Href)
	}
}

func TestIndirectAcquisitionTypeResolution(t *testing.T) {
	data := `{
	  "metadata": {"title": "t"},
	  "publications": [{
	    "metadata": {"title": "Book"},
	    "links": [{
	      "rel": "http://opds-spec.org/acquisition/borrow",
	      "href": "/borrow/1",
	      "type": "application/opds-publication+json",
	      "properties": {"indirectAcquisition": [{"type": "application/vnd.adobe.adept+xml", "child": [{"type": "application/epub+zip"}]}]}
	    }]
	  }]
	}`
	feed, err := Parse([]byte(data), "application/opds+json", feedURL, config.VersionAuto)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	book := feed.Books[0]
	if !book.Borrowable() {
		t.Fatal("expected borrowable book")
	}
	if book.Format != catalog.FormatEPUB {
		t.Fatalf("expected EPUB from indirect chain, got %v", book.Format)
	}
}
