package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"shelfmark/pkg/domain"
)

func duneCandidate() domain.Candidate {
	return domain.Candidate{
		Title:         "Dune",
		Authors:       []string{"Frank Herbert"},
		ISBN10:        "0441172717",
		ISBN13:        "9780441172719",
		Description:   "Desert planet epic",
		PublishedDate: "1965-08-01",
		VolumeID:      "vol-dune",
	}
}

func TestResolveCandidateCreatesWhenNoMatch(t *testing.T) {
	a, st, _, _ := newTestApp(t)

	book, created, err := a.ResolveCandidate(context.Background(), duneCandidate(), "tester")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !created {
		t.Fatalf("expected a new book to be created")
	}
	if book.ID == 0 {
		t.Fatalf("created book has no id")
	}
	if book.ISBN != "9780441172719" {
		t.Fatalf("isbn = %q, want the ISBN-13", book.ISBN)
	}
	if book.PublicationDate == nil || book.PublicationDate.Format("2006-01-02") != "1965-08-01" {
		t.Fatalf("publication date not set: %v", book.PublicationDate)
	}
	if _, total, _ := st.ListBooks(1, 10); total != 1 {
		t.Fatalf("total books = %d, want 1", total)
	}
}

func TestResolveCandidateMatchesByISBN(t *testing.T) {
	a, st, _, _ := newTestApp(t)
	existing := domain.Book{Title: "Dune (old edition)", Author: "F. Herbert", ISBN: "9780441172719"}
	if err := st.CreateBook(&existing); err != nil {
		t.Fatalf("seed: %v", err)
	}

	book, created, err := a.ResolveCandidate(context.Background(), duneCandidate(), "tester")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if created {
		t.Fatalf("ISBN match must update, not create")
	}
	if book.ID != existing.ID {
		t.Fatalf("matched id = %d, want %d", book.ID, existing.ID)
	}
	if book.Title != "Dune" || book.Author != "Frank Herbert" {
		t.Fatalf("title/author not refreshed: %+v", book)
	}
	if _, total, _ := st.ListBooks(1, 10); total != 1 {
		t.Fatalf("total books = %d, want 1", total)
	}
}

func TestResolveCandidateISBN13BeatsISBN10(t *testing.T) {
	a, st, _, _ := newTestApp(t)
	by10 := domain.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "0441172717"}
	by13 := domain.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441172719"}
	if err := st.CreateBook(&by10); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := st.CreateBook(&by13); err != nil {
		t.Fatalf("seed: %v", err)
	}

	book, created, err := a.ResolveCandidate(context.Background(), duneCandidate(), "tester")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if created || book.ID != by13.ID {
		t.Fatalf("expected the ISBN-13 row (%d), got %d created=%v", by13.ID, book.ID, created)
	}
}

func TestResolveCandidateMatchesByTitleAuthor(t *testing.T) {
	a, st, _, _ := newTestApp(t)
	existing := domain.Book{Title: "Dune", Author: "Frank Herbert", Description: "old blurb"}
	if err := st.CreateBook(&existing); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cand := duneCandidate()
	cand.ISBN10, cand.ISBN13 = "", ""
	cand.Description = ""

	book, created, err := a.ResolveCandidate(context.Background(), cand, "tester")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if created || book.ID != existing.ID {
		t.Fatalf("expected a title+author match, got created=%v id=%d", created, book.ID)
	}
	if book.Description != "old blurb" {
		t.Fatalf("empty incoming description must not blank the stored one, got %q", book.Description)
	}
}

func TestResolveCandidateFillsISBNOnlyWhenEmpty(t *testing.T) {
	a, st, _, _ := newTestApp(t)
	existing := domain.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "1111111111"}
	if err := st.CreateBook(&existing); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cand := duneCandidate()
	cand.ISBN10, cand.ISBN13 = "", "9999999999999"

	book, created, err := a.ResolveCandidate(context.Background(), cand, "tester")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if created {
		t.Fatalf("title+author match must update")
	}
	if book.ISBN != "1111111111" {
		t.Fatalf("stored isbn overwritten: %q", book.ISBN)
	}

	blank := domain.Book{Title: "Dune Messiah", Author: "Frank Herbert"}
	if err := st.CreateBook(&blank); err != nil {
		t.Fatalf("seed: %v", err)
	}
	cand2 := domain.Candidate{Title: "Dune Messiah", Authors: []string{"Frank Herbert"}, ISBN13: "9780441172696"}
	book2, _, err := a.ResolveCandidate(context.Background(), cand2, "tester")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if book2.ISBN != "9780441172696" {
		t.Fatalf("empty stored isbn should be filled, got %q", book2.ISBN)
	}
}

func TestResolveCandidateIsIdempotent(t *testing.T) {
	a, st, _, _ := newTestApp(t)

	first, created, err := a.ResolveCandidate(context.Background(), duneCandidate(), "tester")
	if err != nil || !created {
		t.Fatalf("first resolve: created=%v err=%v", created, err)
	}
	second, created, err := a.ResolveCandidate(context.Background(), duneCandidate(), "tester")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if created {
		t.Fatalf("second resolve must not create")
	}
	if second.ID != first.ID {
		t.Fatalf("resolved different rows: %d vs %d", first.ID, second.ID)
	}
	if _, total, _ := st.ListBooks(1, 10); total != 1 {
		t.Fatalf("total books = %d, want 1", total)
	}
}

func TestResolveCandidateDefaultsUnknownAuthor(t *testing.T) {
	a, _, _, _ := newTestApp(t)
	cand := domain.Candidate{Title: "Anonymous Pamphlet"}
	book, created, err := a.ResolveCandidate(context.Background(), cand, "tester")
	if err != nil || !created {
		t.Fatalf("resolve: created=%v err=%v", created, err)
	}
	if book.Author != "Unknown" {
		t.Fatalf("author = %q, want Unknown", book.Author)
	}
}

func TestResolveCandidateRequiresTitle(t *testing.T) {
	a, _, _, _ := newTestApp(t)
	_, _, err := a.ResolveCandidate(context.Background(), domain.Candidate{Authors: []string{"A"}}, "tester")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestImportByExternalID(t *testing.T) {
	a, _, _, catalog := newTestApp(t)
	catalog.fetchFn = func(_ context.Context, volumeID string) (domain.Candidate, error) {
		if volumeID != "vol-dune" {
			return domain.Candidate{}, fmt.Errorf("%w: volume %q", domain.ErrNotFound, volumeID)
		}
		return duneCandidate(), nil
	}

	book, created, err := a.ImportByExternalID(context.Background(), "vol-dune", "tester")
	if err != nil || !created {
		t.Fatalf("import: created=%v err=%v", created, err)
	}
	if book.Title != "Dune" {
		t.Fatalf("imported title = %q", book.Title)
	}

	if _, _, err := a.ImportByExternalID(context.Background(), "", "tester"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty volume id error = %v, want ErrValidation", err)
	}
	if _, _, err := a.ImportByExternalID(context.Background(), "missing", "tester"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing volume error = %v, want ErrNotFound", err)
	}
}

func TestExternalDetailReturnsBothViews(t *testing.T) {
	a, _, _, catalog := newTestApp(t)
	catalog.fetchFn = func(_ context.Context, volumeID string) (domain.Candidate, error) {
		return duneCandidate(), nil
	}

	cand, book, created, err := a.ExternalDetail(context.Background(), "vol-dune", "tester")
	if err != nil || !created {
		t.Fatalf("external detail: created=%v err=%v", created, err)
	}
	if cand.VolumeID != "vol-dune" || cand.Description != "Desert planet epic" {
		t.Fatalf("provider view lost: %+v", cand)
	}
	if book.ID == 0 || book.Title != "Dune" {
		t.Fatalf("saved view = %+v", book)
	}

	if _, _, _, err := a.ExternalDetail(context.Background(), " ", "tester"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("blank volume id error = %v, want ErrValidation", err)
	}
}

func TestImportByQuery(t *testing.T) {
	a, _, _, catalog := newTestApp(t)
	results := []domain.Candidate{
		duneCandidate(),
		{Title: "Dune Messiah", Authors: []string{"Frank Herbert"}, ISBN13: "9780441172696"},
	}
	var gotMax int
	catalog.searchFn = func(_ context.Context, query string, maxResults int) ([]domain.Candidate, int, error) {
		gotMax = maxResults
		if maxResults < len(results) {
			return results[:maxResults], len(results), nil
		}
		return results, len(results), nil
	}

	book, created, err := a.ImportByQuery(context.Background(), "dune", 1, "tester")
	if err != nil || !created {
		t.Fatalf("import: created=%v err=%v", created, err)
	}
	if gotMax != 2 {
		t.Fatalf("search sized to %d, want index+1 = 2", gotMax)
	}
	if book.Title != "Dune Messiah" {
		t.Fatalf("imported title = %q, want the second result", book.Title)
	}

	if _, _, err := a.ImportByQuery(context.Background(), "dune", 5, "tester"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("out-of-range index error = %v, want ErrValidation", err)
	}
	if _, _, err := a.ImportByQuery(context.Background(), "dune", -1, "tester"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("negative index error = %v, want ErrValidation", err)
	}
	if _, _, err := a.ImportByQuery(context.Background(), "", 0, "tester"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty query error = %v, want ErrValidation", err)
	}

	catalog.searchFn = func(context.Context, string, int) ([]domain.Candidate, int, error) {
		return nil, 0, nil
	}
	if _, _, err := a.ImportByQuery(context.Background(), "nothing", 0, "tester"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("empty result error = %v, want ErrNotFound", err)
	}
}
