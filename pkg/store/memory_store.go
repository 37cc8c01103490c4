package store

import (
	"sort"
	"sync"
	"time"

	"shelfmark/pkg/domain"
)

// MemoryStore keeps books and QR codes in-process. It mirrors GormStore
// semantics closely enough for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	books    map[uint64]domain.Book
	qrcodes  map[uint64]domain.QRCode // keyed by book ID
	nextBook uint64
	nextQR   uint64
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		books:   make(map[uint64]domain.Book),
		qrcodes: make(map[uint64]domain.QRCode),
	}
}

// CreateBook assigns the next identity and stores the book.
func (m *MemoryStore) CreateBook(b *domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextBook++
	b.ID = m.nextBook
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	m.books[b.ID] = *b
	return nil
}

// GetBook retrieves a book by identity.
func (m *MemoryStore) GetBook(id uint64) (domain.Book, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[id]
	return b, ok, nil
}

// FindByISBN matches a stored non-empty ISBN exactly.
func (m *MemoryStore) FindByISBN(isbn string) (domain.Book, bool, error) {
	if isbn == "" {
		return domain.Book{}, false, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.books {
		if b.ISBN == isbn {
			return b, true, nil
		}
	}
	return domain.Book{}, false, nil
}

// FindByTitleAuthor matches title and author exactly, oldest first.
func (m *MemoryStore) FindByTitleAuthor(title, author string) (domain.Book, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var found domain.Book
	ok := false
	for _, b := range m.books {
		if b.Title != title || b.Author != author {
			continue
		}
		if !ok || b.CreatedAt.Before(found.CreatedAt) || (b.CreatedAt.Equal(found.CreatedAt) && b.ID < found.ID) {
			found = b
			ok = true
		}
	}
	return found, ok, nil
}

// UpdateBook replaces stored fields, refreshing UpdatedAt only.
func (m *MemoryStore) UpdateBook(b domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.books[b.ID]
	if !ok {
		return nil
	}
	b.CreatedAt = prev.CreatedAt
	b.UpdatedAt = time.Now().UTC()
	m.books[b.ID] = b
	return nil
}

// ListBooks pages through books, newest first.
func (m *MemoryStore) ListBooks(page, pageSize int) ([]domain.Book, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	m.mu.RLock()
	all := make([]domain.Book, 0, len(m.books))
	for _, b := range m.books {
		all = append(all, b)
	}
	m.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	total := int64(len(all))
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []domain.Book{}, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// DeleteBook removes a book and cascades its QR code.
func (m *MemoryStore) DeleteBook(id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.books, id)
	delete(m.qrcodes, id)
	return nil
}

// GetQRCodeByBook returns the book's QR association when one exists.
func (m *MemoryStore) GetQRCodeByBook(bookID uint64) (domain.QRCode, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.qrcodes[bookID]
	return q, ok, nil
}

// SaveQRCode stores the association, assigning identity on first save.
func (m *MemoryStore) SaveQRCode(q *domain.QRCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.ID == 0 {
		m.nextQR++
		q.ID = m.nextQR
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	m.qrcodes[q.BookID] = *q
	return nil
}
