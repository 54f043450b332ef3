package qr

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

const defaultSize = 256

// QRGenerator renders the registration link the dashboard shows to visitors.
type QRGenerator struct {
	url  string
	size int
}

func NewQRGenerator(url string) *QRGenerator {
	return &QRGenerator{url: url, size: defaultSize}
}

func (q *QRGenerator) URL() string {
	return q.url
}

// PNG returns the QR code as PNG bytes.
func (q *QRGenerator) PNG() ([]byte, error) {
	if q.url == "" {
		return nil, fmt.Errorf("qr: empty url")
	}
	return qrcode.Encode(q.url, qrcode.Medium, q.size)
}

// Base64PNG returns the PNG encoded for a data: URI.
func (q *QRGenerator) Base64PNG() (string, error) {
	png, err := q.PNG()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
