package store

import (
	"time"

	"shelfmark/pkg/domain"
)

// GORM models used for persistence.
type BookModel struct {
	ID              uint64  `gorm:"primaryKey;autoIncrement"`
	Title           string  `gorm:"size:200;not null;index:idx_books_title_author,priority:1"`
	Author          string  `gorm:"size:200;not null;index:idx_books_title_author,priority:2"`
	ISBN            *string `gorm:"size:20;uniqueIndex"`
	Description     string  `gorm:"type:text"`
	PublicationDate *time.Time
	CreatedAt       time.Time `gorm:"not null;index"`
	UpdatedAt       time.Time `gorm:"not null"`
}

type QRCodeModel struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	BookID     uint64    `gorm:"not null;uniqueIndex"`
	StorageKey string    `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

func bookToModel(b domain.Book) BookModel {
	var isbn *string
	if b.ISBN != "" {
		v := b.ISBN
		isbn = &v
	}
	return BookModel{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            isbn,
		Description:     b.Description,
		PublicationDate: b.PublicationDate,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func bookFromModel(m BookModel) domain.Book {
	isbn := ""
	if m.ISBN != nil {
		isbn = *m.ISBN
	}
	return domain.Book{
		ID:              m.ID,
		Title:           m.Title,
		Author:          m.Author,
		ISBN:            isbn,
		Description:     m.Description,
		PublicationDate: m.PublicationDate,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func qrFromModel(m QRCodeModel) domain.QRCode {
	return domain.QRCode{
		ID:         m.ID,
		BookID:     m.BookID,
		StorageKey: m.StorageKey,
		CreatedAt:  m.CreatedAt,
	}
}
