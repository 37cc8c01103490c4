// Package app is the core application service: book CRUD, the import
// reconciler, and the lazy QR association logic.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"shelfmark/internal/util"
	"shelfmark/pkg/domain"
	"shelfmark/pkg/storage"
	"shelfmark/pkg/store"
)

// CatalogClient queries the external book-metadata provider.
type CatalogClient interface {
	Search(ctx context.Context, query string, maxResults int) ([]domain.Candidate, int, error)
	FetchByID(ctx context.Context, volumeID string) (domain.Candidate, error)
}

// Config wires required dependencies for the core application.
type Config struct {
	Store         store.Store
	Objects       storage.ObjectStore
	Catalog       CatalogClient
	PresignExpiry time.Duration
}

// App wires together the store, object storage and the catalog client.
type App struct {
	store         store.Store
	objects       storage.ObjectStore
	catalog       CatalogClient
	presignExpiry time.Duration
	qrFlight      singleflight.Group
}

// New constructs the application.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	if cfg.Objects == nil {
		return nil, fmt.Errorf("object store required")
	}
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("catalog client required")
	}
	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &App{
		store:         cfg.Store,
		objects:       cfg.Objects,
		catalog:       cfg.Catalog,
		presignExpiry: expiry,
	}, nil
}

// BookInput carries caller-supplied book fields for create and update.
type BookInput struct {
	Title           string
	Author          string
	ISBN            string
	Description     string
	PublicationDate *time.Time
}

// CreateBook validates input and persists a new book.
func (a *App) CreateBook(ctx context.Context, in BookInput) (domain.Book, error) {
	title := strings.TrimSpace(in.Title)
	author := strings.TrimSpace(in.Author)
	if title == "" {
		return domain.Book{}, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if author == "" {
		return domain.Book{}, fmt.Errorf("%w: author is required", domain.ErrValidation)
	}
	book := domain.Book{
		Title:           title,
		Author:          author,
		ISBN:            strings.TrimSpace(in.ISBN),
		Description:     in.Description,
		PublicationDate: in.PublicationDate,
	}
	if err := a.store.CreateBook(&book); err != nil {
		return domain.Book{}, fmt.Errorf("create book: %w", err)
	}
	return book, nil
}

// GetBook retrieves a book by identity.
func (a *App) GetBook(ctx context.Context, id uint64) (domain.Book, error) {
	book, ok, err := a.store.GetBook(id)
	if err != nil {
		return domain.Book{}, err
	}
	if !ok {
		return domain.Book{}, fmt.Errorf("%w: book %d", domain.ErrNotFound, id)
	}
	return book, nil
}

// ListBooks returns one page of books, newest first, plus the total count.
func (a *App) ListBooks(ctx context.Context, page, pageSize int) ([]domain.Book, int64, error) {
	return a.store.ListBooks(page, pageSize)
}

// UpdateBook applies a full or partial update to an existing book.
// Full updates require title and author and replace every field as given;
// partial updates only apply non-empty fields (and a supplied date).
func (a *App) UpdateBook(ctx context.Context, id uint64, in BookInput, partial bool) (domain.Book, error) {
	book, err := a.GetBook(ctx, id)
	if err != nil {
		return domain.Book{}, err
	}
	title := strings.TrimSpace(in.Title)
	author := strings.TrimSpace(in.Author)
	if partial {
		if title != "" {
			book.Title = title
		}
		if author != "" {
			book.Author = author
		}
		if strings.TrimSpace(in.ISBN) != "" {
			book.ISBN = strings.TrimSpace(in.ISBN)
		}
		if in.Description != "" {
			book.Description = in.Description
		}
		if in.PublicationDate != nil {
			book.PublicationDate = in.PublicationDate
		}
	} else {
		if title == "" {
			return domain.Book{}, fmt.Errorf("%w: title is required", domain.ErrValidation)
		}
		if author == "" {
			return domain.Book{}, fmt.Errorf("%w: author is required", domain.ErrValidation)
		}
		book.Title = title
		book.Author = author
		book.ISBN = strings.TrimSpace(in.ISBN)
		book.Description = in.Description
		book.PublicationDate = in.PublicationDate
	}
	if err := a.store.UpdateBook(book); err != nil {
		return domain.Book{}, fmt.Errorf("update book: %w", err)
	}
	return a.GetBook(ctx, id)
}

// DeleteBook removes a book, its QR association row and the stored artifact.
// Once the row is gone the deletion has succeeded; a failed artifact cleanup
// is logged rather than surfaced, a retry would only see the missing book.
func (a *App) DeleteBook(ctx context.Context, id uint64) error {
	if _, err := a.GetBook(ctx, id); err != nil {
		return err
	}
	qrCode, hadQR, err := a.store.GetQRCodeByBook(id)
	if err != nil {
		return err
	}
	if err := a.store.DeleteBook(id); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if hadQR && qrCode.StorageKey != "" {
		if err := a.objects.Delete(ctx, qrCode.StorageKey); err != nil {
			util.LoggerFromContext(ctx).Warn("qr_artifact_cleanup_failed",
				"book_id", id, "key", qrCode.StorageKey, "err", err)
		}
	}
	return nil
}

// SearchCatalog queries the external provider; results are transient.
func (a *App) SearchCatalog(ctx context.Context, query string, maxResults int) ([]domain.Candidate, int, error) {
	if strings.TrimSpace(query) == "" {
		return nil, 0, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	return a.catalog.Search(ctx, query, maxResults)
}
