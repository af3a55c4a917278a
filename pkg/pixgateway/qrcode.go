package pixgateway

import (
	"encoding/base64"

	qrcode "github.com/skip2/go-qrcode"
)

// placeholderQRBase64 is a blank PNG used when QR rendering fails; the
// copy-and-paste code still lets the customer pay.
const placeholderQRBase64 = "iVBORw0KGgoAAAANSUhEUgAAAMgAAADICAYAAACtWK6eAAAA"

// RenderQRCodeBase64 renders the payload as a base64-encoded PNG.
func RenderQRCodeBase64(payload string) string {
	if payload == "" {
		return placeholderQRBase64
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return placeholderQRBase64
	}
	return base64.StdEncoding.EncodeToString(png)
}
