// Package passkit generates the identifying artifacts of an entry
// pass: the short pass code, the canonical verification URL and the
// QR image encoding that URL.
package passkit

import (
	"encoding/base64"
	"fmt"
	"math/rand/v2"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	codeLength  = 8
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	qrImageSize = 256
)

// NewPassCode returns an 8-character uppercase alphanumeric code.
// Uniqueness is enforced by the store, not here; callers retry on a
// code collision.
func NewPassCode() string {
	buf := make([]byte, codeLength)
	for i := range buf {
		buf[i] = codeCharset[rand.IntN(len(codeCharset))]
	}
	return string(buf)
}

// VerificationURL builds the canonical scan target for a pass.
// The {origin}/verify/{passId} shape is an external contract and must
// not change.
func VerificationURL(origin, passID string) string {
	return fmt.Sprintf("%s/verify/%s", origin, passID)
}

// QRDataURL encodes the verification URL into a PNG rendered as a
// base64 data URL, so the artifact can be stored inline on the pass
// row and served to clients without object storage.
func QRDataURL(verificationURL string) (string, error) {
	png, err := qrcode.Encode(verificationURL, qrcode.Medium, qrImageSize)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
