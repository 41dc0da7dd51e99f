package heuristics

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/anhanga/fincrime-engine/pkg/models"
)

// PIX Forensics Decoder
//
// Parses PIX "Copia e Cola" payloads (EMV QRCPS MPM encoding, BCB Manual
// de Padrões para Iniciação do PIX). The payload is a Tag-Length-Value
// stream: 2-char tag, 2-char decimal length, then exactly `length` chars
// of value. Tags 26 (merchant account info) and 62 (additional data) carry
// nested TLV streams and are parsed recursively.
//
// Integrity is checked with CRC-16/CCITT-FALSE over the UTF-8 bytes of
// everything up to and including the "6304" checksum marker. A bad CRC is
// itself a forensic finding — hand-edited payloads are how beneficiary
// substitution gets done — so decoding always proceeds and the verdict is
// carried on the result instead of aborting.

const (
	pixPayloadPrefix = "000201"
	pixGUI           = "br.gov.bcb.pix"
	crcTag           = "6304"

	tagMerchantAccount = "26"
	tagAmount          = "54"
	tagBeneficiary     = "59"
	tagCity            = "60"
	tagAdditionalData  = "62"
	subTagPixKey       = "01"
	subTagTxID         = "05"
)

// pixCandidateRe matches a candidate payload: fixed version prefix through
// the CRC tag plus 4 hex digits. Name and city fields may contain spaces,
// and scraped pages often split payloads across lines, so the body is
// matched loosely and cleaned afterwards.
var pixCandidateRe = regexp.MustCompile(`(?s)000201.*?6304[0-9A-Fa-f]{4}`)

// ExtractPixPayloads finds every PIX payload embedded in arbitrary text
// (HTML, chat dumps, OCR output). Embedded newlines, tabs and carriage
// returns are stripped; candidates without the mandatory BCB GUI are
// discarded; duplicates are removed. Output order follows first appearance.
func ExtractPixPayloads(text string) []string {
	var payloads []string
	seen := make(map[string]bool)

	for _, raw := range pixCandidateRe.FindAllString(text, -1) {
		cleaned := stripLineBreaks(raw)
		if !strings.Contains(strings.ToLower(cleaned), pixGUI) {
			continue
		}
		if seen[cleaned] {
			continue
		}
		seen[cleaned] = true
		payloads = append(payloads, cleaned)
	}

	return payloads
}

func stripLineBreaks(s string) string {
	return strings.NewReplacer("\n", "", "\r", "", "\t", "").Replace(s)
}

// DecodePix parses one payload into structured intelligence. Parsing is
// best-effort: a malformed length terminates the TLV walk and whatever
// fields were recovered up to that point are returned.
func DecodePix(payload string) models.DecodedPayment {
	payload = strings.TrimSpace(payload)
	payload = strings.Trim(payload, `'"`)

	decoded := models.DecodedPayment{
		FullPayload: payload,
		CRCValid:    ValidateCRC16(payload),
	}

	root := parseTLV(payload)

	decoded.BeneficiaryName = root.value(tagBeneficiary)
	decoded.City = root.value(tagCity)
	decoded.Amount = root.value(tagAmount)

	if merchant := root.nested(tagMerchantAccount); merchant != nil {
		decoded.PixKey = merchant.value(subTagPixKey)
		if decoded.PixKey != "" {
			decoded.PixKeyType = ClassifyPixKey(decoded.PixKey)
		}
	}
	if additional := root.nested(tagAdditionalData); additional != nil {
		decoded.TransactionID = additional.value(subTagTxID)
	}

	return decoded
}

// tlvField is one parsed tag. Nested is non-nil only for the templates
// (tags 26 and 62); every unknown tag is retained verbatim in Value.
type tlvField struct {
	Value  string
	Nested tlvMap
}

type tlvMap map[string]tlvField

func (m tlvMap) value(tag string) string {
	return m[tag].Value
}

func (m tlvMap) nested(tag string) tlvMap {
	return m[tag].Nested
}

// parseTLV walks a TLV stream. A length that fails to parse as a 2-digit
// decimal ends the walk early (partial-result policy). A payload shorter
// than a declared length yields a silently truncated value; observed
// in-the-wild payloads rely on this when the CRC suffix was clipped.
func parseTLV(data string) tlvMap {
	out := make(tlvMap)
	i := 0

	for i+4 <= len(data) {
		tag := data[i : i+2]
		length, err := strconv.Atoi(data[i+2 : i+4])
		if err != nil || length < 0 {
			break
		}
		i += 4

		end := i + length
		if end > len(data) {
			end = len(data)
		}
		value := data[i:end]
		i += length

		field := tlvField{Value: value}
		if tag == tagMerchantAccount || tag == tagAdditionalData {
			field.Nested = parseTLV(value)
		}
		out[tag] = field
	}

	return out
}

// ClassifyPixKey labels the addressing-key format. CPF and CNPJ are the
// Brazilian personal and corporate tax IDs; EVP is the random UUID key
// issued by the central bank directory.
func ClassifyPixKey(key string) string {
	switch {
	case strings.Contains(key, "@"):
		return "email"
	case len(key) == 11 && isAllDigits(key):
		return "cpf"
	case len(key) == 14 && isAllDigits(key):
		return "cnpj"
	case len(key) > 20:
		return "evp"
	default:
		return "random"
	}
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
