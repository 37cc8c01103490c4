package app

import (
	"context"
	"fmt"
	"strings"

	"shelfmark/internal/util"
	"shelfmark/pkg/domain"
)

// unknownAuthor is used when the provider supplies no authors at all.
const unknownAuthor = "Unknown"

// ResolveCandidate decides whether an external candidate corresponds to an
// existing book and creates or merges accordingly. Matching order:
// stored ISBN equal to the candidate's ISBN-13, then ISBN-10, then an exact
// title + first-author match. Returns the persisted book and whether it was
// created. Exactly one row is written; on any error the prior state is left
// untouched.
func (a *App) ResolveCandidate(ctx context.Context, cand domain.Candidate, requestedBy string) (domain.Book, bool, error) {
	title := strings.TrimSpace(cand.Title)
	if title == "" {
		return domain.Book{}, false, fmt.Errorf("%w: candidate has no usable title", domain.ErrValidation)
	}
	author := strings.TrimSpace(cand.FirstAuthor())
	if author == "" {
		author = unknownAuthor
	}

	book, matched, err := a.matchCandidate(cand, title, author)
	if err != nil {
		return domain.Book{}, false, err
	}

	pubDate, hasDate := domain.ParsePublishedDate(cand.PublishedDate).Truncated()

	if !matched {
		created := domain.Book{
			Title:  title,
			Author: author,
			ISBN:   cand.ISBN(),
		}
		if cand.Description != "" {
			created.Description = cand.Description
		}
		if hasDate {
			created.PublicationDate = &pubDate
		}
		if err := a.store.CreateBook(&created); err != nil {
			return domain.Book{}, false, fmt.Errorf("create imported book: %w", err)
		}
		util.LoggerFromContext(ctx).Info("book_imported",
			"book_id", created.ID, "isbn", created.ISBN, "requested_by", requestedBy, "created", true)
		return created, true, nil
	}

	// Merge: overwrite only with non-empty incoming values; the stored ISBN
	// is filled only when previously empty.
	book.Title = title
	book.Author = author
	if cand.Description != "" {
		book.Description = cand.Description
	}
	if hasDate {
		book.PublicationDate = &pubDate
	}
	if book.ISBN == "" {
		book.ISBN = cand.ISBN()
	}
	if err := a.store.UpdateBook(book); err != nil {
		return domain.Book{}, false, fmt.Errorf("update imported book: %w", err)
	}
	updated, err := a.GetBook(ctx, book.ID)
	if err != nil {
		return domain.Book{}, false, err
	}
	util.LoggerFromContext(ctx).Info("book_imported",
		"book_id", updated.ID, "isbn", updated.ISBN, "requested_by", requestedBy, "created", false)
	return updated, false, nil
}

// matchCandidate applies the matching sequence, first match wins.
// ISBN-13 takes priority over ISBN-10 when both are present.
func (a *App) matchCandidate(cand domain.Candidate, title, author string) (domain.Book, bool, error) {
	for _, isbn := range []string{cand.ISBN13, cand.ISBN10} {
		if isbn == "" {
			continue
		}
		book, ok, err := a.store.FindByISBN(isbn)
		if err != nil {
			return domain.Book{}, false, err
		}
		if ok {
			return book, true, nil
		}
	}
	book, ok, err := a.store.FindByTitleAuthor(title, author)
	if err != nil {
		return domain.Book{}, false, err
	}
	return book, ok, nil
}

// ExternalDetail fetches a provider record by volume ID, resolves it against
// the catalog and returns both views: the transient provider candidate and
// the persisted book.
func (a *App) ExternalDetail(ctx context.Context, volumeID, requestedBy string) (domain.Candidate, domain.Book, bool, error) {
	if strings.TrimSpace(volumeID) == "" {
		return domain.Candidate{}, domain.Book{}, false, fmt.Errorf("%w: either a volume id or a query is required", domain.ErrValidation)
	}
	cand, err := a.catalog.FetchByID(ctx, volumeID)
	if err != nil {
		return domain.Candidate{}, domain.Book{}, false, err
	}
	book, created, err := a.ResolveCandidate(ctx, cand, requestedBy)
	if err != nil {
		return domain.Candidate{}, domain.Book{}, false, err
	}
	return cand, book, created, nil
}

// ImportByExternalID resolves a provider record and returns only the
// persisted view.
func (a *App) ImportByExternalID(ctx context.Context, volumeID, requestedBy string) (domain.Book, bool, error) {
	_, book, created, err := a.ExternalDetail(ctx, volumeID, requestedBy)
	return book, created, err
}

// ImportByQuery searches the provider and resolves the result at the given
// position. The search is sized to index+1 so the provider is never asked
// for more than needed.
func (a *App) ImportByQuery(ctx context.Context, query string, index int, requestedBy string) (domain.Book, bool, error) {
	if strings.TrimSpace(query) == "" {
		return domain.Book{}, false, fmt.Errorf("%w: either a volume id or a query is required", domain.ErrValidation)
	}
	if index < 0 {
		return domain.Book{}, false, fmt.Errorf("%w: index must not be negative", domain.ErrValidation)
	}
	candidates, _, err := a.catalog.Search(ctx, query, index+1)
	if err != nil {
		return domain.Book{}, false, err
	}
	if len(candidates) == 0 {
		return domain.Book{}, false, fmt.Errorf("%w: no books found for query %q", domain.ErrNotFound, query)
	}
	if index >= len(candidates) {
		return domain.Book{}, false, fmt.Errorf("%w: index %d out of range, found %d books", domain.ErrValidation, index, len(candidates))
	}
	return a.ResolveCandidate(ctx, candidates[index], requestedBy)
}
