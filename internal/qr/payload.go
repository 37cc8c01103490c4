// Package qr owns the QR payload scheme and PNG rendering.
//
// Payloads are intentionally tiny: "book:<id>" round-trips through any
// scanner and stays stable across artifact re-renders.
package qr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const payloadScheme = "book:"

// ErrInvalidPayload marks a scanned payload that does not follow the
// book:<id> scheme.
var ErrInvalidPayload = errors.New("invalid qr payload")

// EncodePayload builds the scannable payload for a book identity.
func EncodePayload(bookID uint64) string {
	return payloadScheme + strconv.FormatUint(bookID, 10)
}

// DecodePayload parses a payload back into a book identity.
func DecodePayload(payload string) (uint64, error) {
	if !strings.HasPrefix(payload, payloadScheme) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPayload, payload)
	}
	raw := strings.TrimPrefix(payload, payloadScheme)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: book id %q is not a positive number", ErrInvalidPayload, raw)
	}
	return id, nil
}
