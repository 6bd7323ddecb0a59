// Package vapidkey encodes P-256 key pairs the way Web Push
// application servers expect to find them in their configuration:
// URL-safe base64 without padding, either as DER structures or as
// raw scalar and point.
package vapidkey

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Format selects how key material is serialized before base64.
type Format int

const (
	// DER is a PKCS #8 private key and a SubjectPublicKeyInfo
	// public key.
	DER Format = iota
	// Raw is the 32 byte private scalar and the 65 byte uncompressed
	// public point, as used by the Push API applicationServerKey.
	Raw
)

func ParseFormat(s string) (Format, error) {
	switch s {
	case "der":
		return DER, nil
	case "raw":
		return Raw, nil
	default:
		return 0, fmt.Errorf("unknown key format: %q", s)
	}
}

func (f Format) String() string {
	switch f {
	case DER:
		return "der"
	case Raw:
		return "raw"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Set implements flag.Value.
func (f *Format) Set(s string) error {
	parsed, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

const (
	rawPrivateSize = 32
	rawPublicSize  = 1 + 2*32
)

// ErrMismatch is returned by Check when the public key is not the one
// belonging to the private key.
var ErrMismatch = errors.New("public key does not match private key")

// Encoded is a key pair in its textual form.
type Encoded struct {
	Public  string
	Private string
}

func encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// decode accepts both padded and unpadded input.
func decode(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.Strict().DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("not URL-safe base64: %w", err)
	}
	return b, nil
}

func Encode(key *ecdsa.PrivateKey, f Format) (*Encoded, error) {
	if key.Curve != elliptic.P256() {
		return nil, fmt.Errorf("not a P-256 key: %s", key.Curve.Params().Name)
	}

	var pub, priv []byte
	var err error
	switch f {
	case DER:
		priv, err = x509.MarshalPKCS8PrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("cannot marshal private key: %v", err)
		}
		pub, err = x509.MarshalPKIXPublicKey(&key.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("cannot marshal public key: %v", err)
		}
	case Raw:
		priv, err = key.Bytes()
		if err != nil {
			return nil, fmt.Errorf("cannot marshal private key: %v", err)
		}
		pub, err = key.PublicKey.Bytes()
		if err != nil {
			return nil, fmt.Errorf("cannot marshal public key: %v", err)
		}
	default:
		return nil, fmt.Errorf("unknown key format: %v", f)
	}

	e := &Encoded{
		Public:  encode(pub),
		Private: encode(priv),
	}
	return e, nil
}

// ParsePublicKey parses a public key in either format. A 65 byte
// value is taken to be a raw point, anything else must be a
// SubjectPublicKeyInfo.
func ParsePublicKey(s string) (*ecdsa.PublicKey, error) {
	b, err := decode(s)
	if err != nil {
		return nil, fmt.Errorf("cannot parse public key: %v", err)
	}
	point := b
	if len(b) != rawPublicSize {
		point, err = parseSPKI(b)
		if err != nil {
			return nil, fmt.Errorf("cannot parse public key: %v", err)
		}
	}
	pub, err := ecdsa.ParseUncompressedPublicKey(elliptic.P256(), point)
	if err != nil {
		return nil, fmt.Errorf("cannot parse public key: %v", err)
	}
	return pub, nil
}

// ParsePrivateKey parses a private key in either format. A 32 byte
// value is taken to be a raw scalar, anything else must be PKCS #8.
// The public half of the result is always derived from the scalar,
// never taken from the encoding.
func ParsePrivateKey(s string) (*ecdsa.PrivateKey, error) {
	b, err := decode(s)
	if err != nil {
		return nil, fmt.Errorf("cannot parse private key: %v", err)
	}
	scalar := b
	if len(b) != rawPrivateSize {
		scalar, err = parsePKCS8Scalar(b)
		if err != nil {
			return nil, fmt.Errorf("cannot parse private key: %v", err)
		}
	}
	key, err := ecdsa.ParseRawPrivateKey(elliptic.P256(), scalar)
	if err != nil {
		return nil, fmt.Errorf("cannot parse private key: %v", err)
	}
	return key, nil
}

func parsePKCS8Scalar(der []byte) ([]byte, error) {
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("not an ECDSA key: %T", parsed)
	}
	if key.Curve != elliptic.P256() {
		return nil, fmt.Errorf("not a P-256 key: %s", key.Curve.Params().Name)
	}
	return key.Bytes()
}

// Check parses both halves of e and verifies that they form one key
// pair.
func Check(e *Encoded) error {
	pub, err := ParsePublicKey(e.Public)
	if err != nil {
		return err
	}
	priv, err := ParsePrivateKey(e.Private)
	if err != nil {
		return err
	}
	if !priv.PublicKey.Equal(pub) {
		return ErrMismatch
	}
	return nil
}

// Tag is a short, stable name for a public key, for humans comparing
// configurations. It is not a security boundary. The tag is the same
// for both formats.
func Tag(pub *ecdsa.PublicKey) string {
	point, err := pub.Bytes()
	if err != nil {
		// only for keys that never came out of this package
		panic("cannot marshal P-256 public key: " + err.Error())
	}
	hashed := sha256.Sum256(point)
	return encode(hashed[:4])
}
