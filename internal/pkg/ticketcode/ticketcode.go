// Package ticketcode generates the scannable ticket credentials: an
// unguessable code and its rendered QR image.
package ticketcode

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// QRTTL bounds the freshness of a rendered QR image. It does not bound the
// validity of the underlying code; a stale image is simply re-rendered.
const QRTTL = 24 * time.Hour

const qrImageSize = 256

// New returns a fresh globally unique ticket code.
func New() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// QRDataURL renders the code as a PNG QR image wrapped in a data URL, ready
// to be embedded in a page or wallet pass.
func QRDataURL(code string) (string, error) {
	png, err := qrcode.Encode(code, qrcode.Medium, qrImageSize)
	if err != nil {
		return "", fmt.Errorf("qrcode.Encode -> %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
