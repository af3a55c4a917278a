package pixgateway

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// BRCodeParams describes a static PIX BR code payload.
type BRCodeParams struct {
	ReceiverKey  string
	MerchantName string
	MerchantCity string
	Amount       decimal.Decimal
	Reference    string
}

// BuildBRCode assembles an EMV-style copy-and-paste PIX payload. It is
// deterministic for a given set of params, which keeps offline charges
// reproducible across retries.
func BuildBRCode(params BRCodeParams) string {
	merchantAccount := tlv("00", "br.gov.bcb.pix") + tlv("01", params.ReceiverKey)

	reference := sanitizeReference(params.Reference)
	additional := tlv("05", reference)

	payload := tlv("00", "01") + // payload format indicator
		tlv("26", merchantAccount) +
		tlv("52", "0000") + // merchant category: unspecified
		tlv("53", "986") + // BRL
		tlv("54", params.Amount.StringFixed(2)) +
		tlv("58", "BR") +
		tlv("59", truncate(params.MerchantName, 25)) +
		tlv("60", truncate(params.MerchantCity, 15)) +
		tlv("62", additional) +
		"6304" // CRC placeholder: id + length, value appended below

	return payload + crc16(payload)
}

func tlv(id, value string) string {
	return fmt.Sprintf("%s%02d%s", id, len(value), value)
}

func sanitizeReference(reference string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
			return r
		default:
			return -1
		}
	}, reference)
	if cleaned == "" {
		cleaned = "***"
	}
	return truncate(cleaned, 25)
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}

// crc16 implements CRC-16/CCITT-FALSE as required by the EMV QR spec.
func crc16(payload string) string {
	crc := uint16(0xFFFF)
	for _, b := range []byte(payload) {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return fmt.Sprintf("%04X", crc)
}
