// Package keysource hands out fresh P-256 keys, behind an interface
// so callers can be tested with fixed keys.
package keysource

//go:generate mockgen -destination=mock_keysource/mock_keysource.go eagain.net/go/vapidgen/internal/keysource Generator

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"io"
	"log"
)

const (
	debug = false
)

func debugf(format string, args ...interface{}) {
	if debug {
		log.Printf(format, args...)
	}
}

type Generator interface {
	GenerateKey() (*ecdsa.PrivateKey, error)
}

type randGenerator struct {
	rand io.Reader
}

// New returns a Generator backed by crypto/rand.
func New() Generator {
	return NewFromReader(rand.Reader)
}

func NewFromReader(r io.Reader) Generator {
	return &randGenerator{rand: r}
}

var _ Generator = (*randGenerator)(nil)

func (g *randGenerator) GenerateKey() (*ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), g.rand)
	if err != nil {
		return nil, fmt.Errorf("cannot generate P-256 key: %w", err)
	}
	debugf("generated key with public point x=%x", key.PublicKey.X)
	return key, nil
}
