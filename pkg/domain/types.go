package domain

import "time"

// Book is a persisted catalog record for a physical or logical book.
// Identity is numeric and assigned by the store.
type Book struct {
	ID              uint64     `json:"id"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	ISBN            string     `json:"isbn,omitempty"`
	Description     string     `json:"description,omitempty"`
	PublicationDate *time.Time `json:"publicationDate,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// QRCode is the scannable artifact attached to exactly one book.
// At most one exists per book; it is created lazily on first access
// and destroyed together with its book.
type QRCode struct {
	ID         uint64    `json:"id"`
	BookID     uint64    `json:"bookId"`
	StorageKey string    `json:"-"`
	URL        string    `json:"url,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Candidate is a transient record normalized from the external catalog
// provider. It is produced fresh per query and never persisted or cached.
type Candidate struct {
	Title         string   `json:"title"`
	Authors       []string `json:"authors,omitempty"`
	PublishedDate string   `json:"publishedDate,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	Description   string   `json:"description,omitempty"`
	PageCount     int      `json:"pageCount,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	AverageRating float64  `json:"averageRating,omitempty"`
	RatingsCount  int      `json:"ratingsCount,omitempty"`
	Language      string   `json:"language,omitempty"`
	PreviewLink   string   `json:"previewLink,omitempty"`
	InfoLink      string   `json:"infoLink,omitempty"`
	Thumbnail     string   `json:"thumbnail,omitempty"`
	ISBN10        string   `json:"isbn10,omitempty"`
	ISBN13        string   `json:"isbn13,omitempty"`
	VolumeID      string   `json:"volumeId,omitempty"`
}

// ISBN returns the candidate's preferred identifier: ISBN-13 when present,
// else ISBN-10, else empty.
func (c Candidate) ISBN() string {
	if c.ISBN13 != "" {
		return c.ISBN13
	}
	return c.ISBN10
}

// FirstAuthor returns the leading entry of the authors sequence, or empty.
func (c Candidate) FirstAuthor() string {
	if len(c.Authors) == 0 {
		return ""
	}
	return c.Authors[0]
}
