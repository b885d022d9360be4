package catalog

import "strings"

// Format identifies the file format of an acquisition link
type Format int

const (
	FormatUnknown Format = iota
	FormatEPUB
	FormatPDF
	FormatAudiobook
)

// String returns a human-readable representation of the format
func (f Format) String() string {
	switch f {
	case FormatEPUB:
		return "EPUB"
	case FormatPDF:
		return "PDF"
	case FormatAudiobook:
		return "Audiobook"
	default:
		return "Unknown"
	}
}

// FormatFromMIME maps an acquisition media type to a Format
func FormatFromMIME(mime string) Format {
	mime = strings.ToLower(strings.TrimSpace(mime))
	// Parameters (e.g. ";profile=...") don't matter for format detection
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	switch {
	case mime == "application/epub+zip":
		return FormatEPUB
	case mime == "application/pdf":
		return FormatPDF
	case mime == "application/audiobook+zip" || strings.HasPrefix(mime, "audio/"):
		return FormatAudiobook
	default:
		return FormatUnknown
	}
}

// AlternateFormat is one additional file of the same logical work
type AlternateFormat struct {
	Format      Format // File format
	DownloadURL string // Direct acquisition URL
	MIMEType    string // Declared media type
}

// Collection is a curated sub-feed a book may belong to
type Collection struct {
	Title string // Display title, also the merge key across feeds
	Href  string // Sub-feed URL (may be empty for metadata-only collections)
}

// Book represents one publication in a normalized catalog feed.
//
// Identity is structural (Title plus DownloadURL); two fetches of the same
// feed yield distinct values describing the same work.
type Book struct {
	Title       string // Display title
	Author      string // Joined author names
	Summary     string // Plot/description text
	CoverURL    string // Cover image URL (may be a data: URL for embedded covers)
	DownloadURL string // Primary acquisition URL
	BorrowURL   string // Borrow/loan link when the work is not directly downloadable
	Format      Format // Convenience summary of the primary format
	MIMEType    string // Declared media type of the primary link

	// AlternativeFormats, when non-empty, is the authoritative format set;
	// the singular Format field is only a summary of the primary link.
	AlternativeFormats []AlternateFormat

	Publisher   string // Publisher name
	Published   string // Publication date as provided by the feed
	ProviderID  string // Provider-assigned identifier
	Subjects    []string
	Audience    string // e.g. "Adult", "Children"
	Fiction     *bool  // nil when the feed does not say
	MediaType   string // e.g. "Book", "Audiobook" per feed metadata
	Collections []Collection
}

// Formats returns the authoritative format set for the book.
func (b *Book) Formats() []Format {
	if len(b.AlternativeFormats) > 0 {
		out := make([]Format, 0, len(b.AlternativeFormats))
		for _, alt := range b.AlternativeFormats {
			out = append(out, alt.Format)
		}
		return out
	}
	return []Format{b.Format}
}

// Borrowable reports whether acquiring the book requires following a
// borrow/loan chain instead of a direct download.
func (b *Book) Borrowable() bool {
	return b.DownloadURL == "" && b.BorrowURL != ""
}

// FictionLabel returns "Fiction"/"Non-Fiction" or "" when unknown
func (b *Book) FictionLabel() string {
	if b.Fiction == nil {
		return ""
	}
	if *b.Fiction {
		return "Fiction"
	}
	return "Non-Fiction"
}
