package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// ArtifactSize is the side length in pixels of rendered QR images.
const ArtifactSize = 512

// ContentType is the MIME type of rendered artifacts.
const ContentType = "image/png"

// Render encodes the payload into a PNG image.
func Render(payload string) ([]byte, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, ArtifactSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr png: %w", err)
	}
	return png, nil
}

// ArtifactKey returns the object-store key for a book's QR image.
func ArtifactKey(bookID uint64) string {
	return fmt.Sprintf("qrcodes/qrcode_%d.png", bookID)
}
