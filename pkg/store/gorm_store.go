package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"shelfmark/pkg/domain"
)

const migrateLockID int64 = 61140217

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory lock
// so concurrent replicas do not race on schema changes.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&BookModel{}, &QRCodeModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		if err := tx.Exec(`
			DO $$
			BEGIN
				DELETE FROM qr_code_models q
				WHERE NOT EXISTS (SELECT 1 FROM book_models b WHERE b.id = q.book_id);
				IF NOT EXISTS (
					SELECT 1 FROM information_schema.table_constraints
					WHERE table_schema = 'public'
					AND table_name = 'qr_code_models'
					AND constraint_name = 'qr_code_models_book_id_fkey'
				) THEN
					ALTER TABLE qr_code_models
					ADD CONSTRAINT qr_code_models_book_id_fkey
					FOREIGN KEY (book_id) REFERENCES book_models(id) ON DELETE CASCADE;
				END IF;
			END $$;
		`).Error; err != nil {
			return fmt.Errorf("ensure qr code foreign key: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// CreateBook inserts a new book and assigns its identity and timestamps.
func (s *GormStore) CreateBook(b *domain.Book) error {
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	model := bookToModel(*b)
	if err := s.db.Create(&model).Error; err != nil {
		return err
	}
	b.ID = model.ID
	return nil
}

// GetBook retrieves a book by identity.
func (s *GormStore) GetBook(id uint64) (domain.Book, bool, error) {
	var model BookModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Book{}, false, nil
		}
		return domain.Book{}, false, err
	}
	return bookFromModel(model), true, nil
}

// FindByISBN returns the book whose stored ISBN equals the given value.
func (s *GormStore) FindByISBN(isbn string) (domain.Book, bool, error) {
	if isbn == "" {
		return domain.Book{}, false, nil
	}
	var model BookModel
	if err := s.db.First(&model, "isbn = ?", isbn).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Book{}, false, nil
		}
		return domain.Book{}, false, err
	}
	return bookFromModel(model), true, nil
}

// FindByTitleAuthor returns the oldest book matching title and author exactly.
func (s *GormStore) FindByTitleAuthor(title, author string) (domain.Book, bool, error) {
	var model BookModel
	err := s.db.Where("title = ? AND author = ?", title, author).
		Order("created_at ASC").
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Book{}, false, nil
		}
		return domain.Book{}, false, err
	}
	return bookFromModel(model), true, nil
}

// UpdateBook persists new field values for an existing book in one write.
// CreatedAt is left untouched; UpdatedAt is refreshed.
func (s *GormStore) UpdateBook(b domain.Book) error {
	var isbn *string
	if b.ISBN != "" {
		v := b.ISBN
		isbn = &v
	}
	return s.db.Model(&BookModel{}).
		Where("id = ?", b.ID).
		Updates(map[string]any{
			"title":            b.Title,
			"author":           b.Author,
			"isbn":             isbn,
			"description":      b.Description,
			"publication_date": b.PublicationDate,
			"updated_at":       time.Now().UTC(),
		}).Error
}

// ListBooks returns one page of books, newest first, plus the total count.
func (s *GormStore) ListBooks(page, pageSize int) ([]domain.Book, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	var total int64
	if err := s.db.Model(&BookModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []BookModel
	if err := s.db.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}
	res := make([]domain.Book, 0, len(models))
	for _, m := range models {
		res = append(res, bookFromModel(m))
	}
	return res, total, nil
}

// DeleteBook removes a book and its QR code row in one transaction.
func (s *GormStore) DeleteBook(id uint64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&QRCodeModel{}, "book_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&BookModel{}, "id = ?", id).Error
	})
}

// GetQRCodeByBook returns the book's QR association when one exists.
func (s *GormStore) GetQRCodeByBook(bookID uint64) (domain.QRCode, bool, error) {
	var model QRCodeModel
	if err := s.db.First(&model, "book_id = ?", bookID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.QRCode{}, false, nil
		}
		return domain.QRCode{}, false, err
	}
	return qrFromModel(model), true, nil
}

// SaveQRCode inserts the QR association and assigns its identity.
func (s *GormStore) SaveQRCode(q *domain.QRCode) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	model := QRCodeModel{
		BookID:     q.BookID,
		StorageKey: q.StorageKey,
		CreatedAt:  q.CreatedAt,
	}
	if err := s.db.Create(&model).Error; err != nil {
		return err
	}
	q.ID = model.ID
	return nil
}
