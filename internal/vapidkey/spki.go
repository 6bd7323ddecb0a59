package vapidkey

import (
	"encoding/asn1"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

var (
	oidPublicKeyECDSA = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidNamedCurveP256 = asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}
)

// parseSPKI returns the uncompressed point from a DER
// SubjectPublicKeyInfo holding a P-256 key.
func parseSPKI(der []byte) ([]byte, error) {
	input := cryptobyte.String(der)
	var (
		spki, algo        cryptobyte.String
		algoOID, curveOID asn1.ObjectIdentifier
		point             asn1.BitString
	)
	if !input.ReadASN1(&spki, cryptobyte_asn1.SEQUENCE) || !input.Empty() {
		return nil, errors.New("malformed SubjectPublicKeyInfo")
	}
	if !spki.ReadASN1(&algo, cryptobyte_asn1.SEQUENCE) ||
		!algo.ReadASN1ObjectIdentifier(&algoOID) {
		return nil, errors.New("malformed algorithm identifier")
	}
	if !algoOID.Equal(oidPublicKeyECDSA) {
		return nil, fmt.Errorf("not an EC public key: %v", algoOID)
	}
	if !algo.ReadASN1ObjectIdentifier(&curveOID) || !algo.Empty() {
		return nil, errors.New("EC public key without named curve")
	}
	if !curveOID.Equal(oidNamedCurveP256) {
		return nil, fmt.Errorf("not a P-256 key: curve %v", curveOID)
	}
	if !spki.ReadASN1BitString(&point) || !spki.Empty() {
		return nil, errors.New("malformed subject public key")
	}
	if point.BitLength != 8*len(point.Bytes) {
		return nil, errors.New("subject public key is not a whole number of bytes")
	}
	return point.Bytes, nil
}

// derLead is the encoding of every P-256 SubjectPublicKeyInfo up to
// and including the 0x04 point marker. It is 27 bytes, so it ends on
// a base64 boundary.
const derLead = "MFkwEwYHKoZIzj0CAQYIKoZIzj0DAQcDQgAE"

const (
	derPublicLen = 122
	rawPublicLen = 87
)

func isURLAlphabet(c byte) bool {
	return 'A' <= c && c <= 'Z' ||
		'a' <= c && c <= 'z' ||
		'0' <= c && c <= '9' ||
		c == '-' || c == '_'
}

// PrefixReachable reports whether some encoded public key in format f
// starts with prefix.
func PrefixReachable(f Format, prefix string) bool {
	for i := 0; i < len(prefix); i++ {
		if !isURLAlphabet(prefix[i]) {
			return false
		}
	}

	var lead string
	var maxLen int
	switch f {
	case DER:
		lead, maxLen = derLead, derPublicLen
	case Raw:
		lead, maxLen = "B", rawPublicLen
	default:
		return false
	}
	if len(prefix) > maxLen {
		return false
	}
	if len(prefix) <= len(lead) {
		return strings.HasPrefix(lead, prefix)
	}
	if !strings.HasPrefix(prefix, lead) {
		return false
	}
	if f == Raw {
		// 0x04 leaves only the top two bits of the second sextet
		// fixed, both zero
		c := prefix[1]
		return 'A' <= c && c <= 'P'
	}
	return true
}
