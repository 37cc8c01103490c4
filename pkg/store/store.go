package store

import "shelfmark/pkg/domain"

// Store defines persistence operations for books and their QR codes.
//
// FindByISBN and FindByTitleAuthor match exactly and case-sensitively;
// they are the lookups the import reconciler relies on. Concurrent
// identical imports are defended by the unique index on isbn, not by
// the reconciler itself.
type Store interface {
	// books
	CreateBook(b *domain.Book) error
	GetBook(id uint64) (domain.Book, bool, error)
	FindByISBN(isbn string) (domain.Book, bool, error)
	FindByTitleAuthor(title, author string) (domain.Book, bool, error)
	UpdateBook(b domain.Book) error
	ListBooks(page, pageSize int) ([]domain.Book, int64, error)
	DeleteBook(id uint64) error

	// qr codes
	GetQRCodeByBook(bookID uint64) (domain.QRCode, bool, error)
	SaveQRCode(q *domain.QRCode) error
}
