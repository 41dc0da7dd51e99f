package heuristics

import (
	"fmt"
	"strings"
)

// CRC-16/CCITT-FALSE as mandated by the BCB PIX specification:
// polynomial 0x1021, initial value 0xFFFF, no input or output reflection,
// no final XOR. Computed over the UTF-8 byte encoding of the payload up to
// and including the "6304" marker; the 4 hex chars that follow are the
// transmitted checksum.

// ComputeCRC16 returns the checksum of data as 4 uppercase hex digits.
func ComputeCRC16(data string) string {
	crc := uint16(0xFFFF)
	for _, b := range []byte(data) {
		crc ^= uint16(b) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return fmt.Sprintf("%04X", crc)
}

// ValidateCRC16 checks the transmitted checksum of a full PIX payload.
//
// The split point is the LAST occurrence of "6304" in the payload. In
// principle the marker could legitimately appear inside a name or city
// field and mis-split the payload; real-world fixtures all terminate with
// the CRC tag, so the last-occurrence rule is kept as observed.
func ValidateCRC16(payload string) bool {
	pivot := strings.LastIndex(payload, crcTag)
	if pivot < 0 {
		return false
	}

	dataToCheck := payload[:pivot+4]
	provided := payload[pivot+4:]

	return ComputeCRC16(dataToCheck) == strings.ToUpper(provided)
}
