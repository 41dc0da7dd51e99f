package heuristics

import (
	"strings"
	"testing"
)

// buildPixPayload assembles a syntactically valid payload and appends the
// correct CRC-16 suffix.
func buildPixPayload(body string) string {
	withMarker := body + crcTag
	return withMarker + ComputeCRC16(withMarker)
}

// strawPayloadBody is a typical unlicensed-gambling deposit code: email
// key, named individual as beneficiary, fixed amount, tracking ID "***".
const strawPayloadBody = "00020126430014br.gov.bcb.pix0121fraudster@example.com520400005303986" +
	"5406150.005802BR5910JOAO SILVA6008BRASILIA62070503***"

func TestDecodePix_FullPayload(t *testing.T) {
	payload := buildPixPayload(strawPayloadBody)

	decoded := DecodePix(payload)

	if !decoded.CRCValid {
		t.Errorf("Expected a freshly built payload to carry a valid CRC")
	}
	if decoded.BeneficiaryName != "JOAO SILVA" {
		t.Errorf("Expected beneficiary JOAO SILVA. Got: %q", decoded.BeneficiaryName)
	}
	if decoded.City != "BRASILIA" {
		t.Errorf("Expected city BRASILIA. Got: %q", decoded.City)
	}
	if decoded.Amount != "150.00" {
		t.Errorf("Expected amount 150.00. Got: %q", decoded.Amount)
	}
	if decoded.TransactionID != "***" {
		t.Errorf("Expected transaction ID ***. Got: %q", decoded.TransactionID)
	}
	if decoded.PixKey != "fraudster@example.com" {
		t.Errorf("Expected PIX key fraudster@example.com. Got: %q", decoded.PixKey)
	}
	if decoded.PixKeyType != "email" {
		t.Errorf("Expected key type email. Got: %q", decoded.PixKeyType)
	}
}

func TestDecodePix_TamperedChecksumStillDecodes(t *testing.T) {
	// Hand-edited payload: correct structure, wrong CRC. Decoding must
	// proceed and surface the integrity verdict instead of aborting.
	payload := strawPayloadBody + "6304ABCD"

	decoded := DecodePix(payload)

	if decoded.CRCValid {
		t.Errorf("Expected CRC verdict to be invalid for a tampered checksum")
	}
	if decoded.BeneficiaryName != "JOAO SILVA" || decoded.Amount != "150.00" {
		t.Errorf("Expected full field extraction despite bad CRC. Got beneficiary=%q amount=%q",
			decoded.BeneficiaryName, decoded.Amount)
	}
}

func TestDecodePix_QuotedPayload(t *testing.T) {
	// Payloads copied out of JS string literals arrive wrapped in quotes.
	payload := `"` + buildPixPayload(strawPayloadBody) + `"`

	decoded := DecodePix(payload)
	if !decoded.CRCValid {
		t.Errorf("Expected surrounding quotes to be stripped before CRC validation")
	}
}

func TestDecodePix_MalformedLengthPartialResult(t *testing.T) {
	// Tag 60 declares a garbage length: the walk stops there but keeps
	// everything parsed before it.
	decoded := DecodePix("0002015910JOAO SILVA60ZZBRASILIA")

	if decoded.BeneficiaryName != "JOAO SILVA" {
		t.Errorf("Expected beneficiary recovered before the malformed tag. Got: %q", decoded.BeneficiaryName)
	}
	if decoded.City != "" {
		t.Errorf("Expected no city after the malformed length. Got: %q", decoded.City)
	}
}

func TestDecodePix_TruncatedValue(t *testing.T) {
	// Declared length runs past the end of the payload: the value is
	// silently truncated, mirroring clipped copy-paste captures.
	decoded := DecodePix("0002015915JOAO")

	if decoded.BeneficiaryName != "JOAO" {
		t.Errorf("Expected truncated beneficiary JOAO. Got: %q", decoded.BeneficiaryName)
	}
}

func TestExtractPixPayloads_FromHTML(t *testing.T) {
	payload := buildPixPayload(strawPayloadBody)

	// Same payload embedded twice, once split across lines, plus a decoy
	// candidate without the mandatory BCB GUI.
	split := payload[:40] + "\n" + payload[40:60] + "\r\n\t" + payload[60:]
	html := `<div class="qr">` + split + `</div><p>pague agora</p><span>` + payload + `</span>` +
		`<code>000201deadbeef6304FFFF</code>`

	payloads := ExtractPixPayloads(html)

	if len(payloads) != 1 {
		t.Fatalf("Expected exactly 1 unique payload. Got: %d (%v)", len(payloads), payloads)
	}
	if payloads[0] != payload {
		t.Errorf("Expected line breaks stripped from extracted payload.\nGot:  %q\nWant: %q", payloads[0], payload)
	}
}

func TestExtractPixPayloads_NoCandidates(t *testing.T) {
	if got := ExtractPixPayloads("<html><body>nada aqui</body></html>"); len(got) != 0 {
		t.Errorf("Expected no payloads in plain HTML. Got: %v", got)
	}
}

func TestComputeCRC16_KnownVector(t *testing.T) {
	// CRC-16/CCITT-FALSE check value from the standard test string.
	if got := ComputeCRC16("123456789"); got != "29B1" {
		t.Errorf("Expected CCITT-FALSE check value 29B1. Got: %s", got)
	}
}

func TestValidateCRC16(t *testing.T) {
	valid := buildPixPayload(strawPayloadBody)

	if !ValidateCRC16(valid) {
		t.Errorf("Expected self-consistent payload to validate")
	}

	// Flip one character of the transmitted checksum.
	last := valid[len(valid)-1]
	flip := byte('0')
	if last == '0' {
		flip = '1'
	}
	if ValidateCRC16(valid[:len(valid)-1] + string(flip)) {
		t.Errorf("Expected corrupted checksum to fail validation")
	}

	// Lowercase transmitted checksum is accepted.
	body := strawPayloadBody + crcTag
	if !ValidateCRC16(body + strings.ToLower(ComputeCRC16(body))) {
		t.Errorf("Expected lowercase checksum hex to validate")
	}

	if ValidateCRC16("000201no-marker-here") {
		t.Errorf("Expected payload without CRC marker to fail validation")
	}
}

func TestClassifyPixKey(t *testing.T) {
	cases := []struct {
		key  string
		want string
	}{
		{"fraudster@example.com", "email"},
		{"12345678901", "cpf"},
		{"12345678000199", "cnpj"},
		{"123e4567-e89b-12d3-a456-426614174000", "evp"},
		{"abc123", "random"},
	}

	for _, c := range cases {
		if got := ClassifyPixKey(c.key); got != c.want {
			t.Errorf("ClassifyPixKey(%q) = %q, want %q", c.key, got, c.want)
		}
	}
}
