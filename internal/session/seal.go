package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

// ErrUnsealable is returned when a stored credential fails authentication
// or decoding.
var ErrUnsealable = errors.New("session: stored credential cannot be opened")

// Sealer encrypts credentials at rest with NaCl secretbox.
type Sealer struct {
	key [32]byte
}

// NewSealer derives the box key from secret with HKDF-SHA256.
func NewSealer(secret string) *Sealer {
	s := &Sealer{}
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("portal session credential"))
	if _, err := io.ReadFull(r, s.key[:]); err != nil {
		// hkdf only fails after 255*32 bytes
		panic(err)
	}
	return s
}

// Seal returns base64url(nonce || box).
func (s *Sealer) Seal(plain string) (string, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", err
	}
	out := secretbox.Seal(nonce[:], []byte(plain), &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil || len(raw) < 24+secretbox.Overhead {
		return "", ErrUnsealable
	}
	var nonce [24]byte
	copy(nonce[:], raw[:24])
	plain, ok := secretbox.Open(nil, raw[24:], &nonce, &s.key)
	if !ok {
		return "", ErrUnsealable
	}
	return string(plain), nil
}
