package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"shelfmark/internal/qr"
	"shelfmark/pkg/domain"
)

// EnsureQRCode returns the book's QR association, creating it lazily on
// first access. Repeated calls return the same association without
// regenerating the artifact; concurrent calls for one book are collapsed.
func (a *App) EnsureQRCode(ctx context.Context, bookID uint64) (domain.QRCode, error) {
	if _, err := a.GetBook(ctx, bookID); err != nil {
		return domain.QRCode{}, err
	}
	res, err, _ := a.qrFlight.Do(strconv.FormatUint(bookID, 10), func() (any, error) {
		return a.ensureQRCode(ctx, bookID)
	})
	if err != nil {
		return domain.QRCode{}, err
	}
	qrCode := res.(domain.QRCode)
	url, err := a.objects.PresignGet(ctx, qrCode.StorageKey, a.presignExpiry)
	if err != nil {
		return domain.QRCode{}, fmt.Errorf("presign qr artifact: %w", err)
	}
	qrCode.URL = url
	return qrCode, nil
}

func (a *App) ensureQRCode(ctx context.Context, bookID uint64) (domain.QRCode, error) {
	existing, ok, err := a.store.GetQRCodeByBook(bookID)
	if err != nil {
		return domain.QRCode{}, err
	}
	if ok {
		return existing, nil
	}
	png, err := qr.Render(qr.EncodePayload(bookID))
	if err != nil {
		return domain.QRCode{}, err
	}
	key := qr.ArtifactKey(bookID)
	if err := a.objects.Put(ctx, key, png, qr.ContentType); err != nil {
		return domain.QRCode{}, fmt.Errorf("store qr artifact: %w", err)
	}
	qrCode := domain.QRCode{BookID: bookID, StorageKey: key}
	if err := a.store.SaveQRCode(&qrCode); err != nil {
		return domain.QRCode{}, fmt.Errorf("save qr code: %w", err)
	}
	return qrCode, nil
}

// ScanQRCode parses a scanned payload and returns the referenced book.
func (a *App) ScanQRCode(ctx context.Context, payload string) (domain.Book, error) {
	id, err := qr.DecodePayload(payload)
	if err != nil {
		if errors.Is(err, qr.ErrInvalidPayload) {
			return domain.Book{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		return domain.Book{}, err
	}
	return a.GetBook(ctx, id)
}
