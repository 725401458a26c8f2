// Package identity supplies the current logged-in identity and event signing.
package identity

import (
	"crypto/ed25519"
	"encoding/hex"

	"golang.org/x/crypto/argon2"

	"github.com/blobbi/island/internal/event"
)

// Provider yields the logged-in public identity, or reports logged-out.
// A logged-out provider is "no data available", not an error source.
type Provider interface {
	// PubKey returns the hex public key and true, or ("", false) if logged out.
	PubKey() (string, bool)

	// Sign signs an event as the current identity.
	Sign(ev *event.Event) error
}

// Argon2id parameters for passphrase-derived signing keys.
const (
	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 1
	seedLen      uint32 = ed25519.SeedSize
)

// Keychain holds an Ed25519 signing key.
type Keychain struct {
	priv ed25519.PrivateKey
}

// FromSeed builds a keychain from a raw 32-byte seed.
func FromSeed(seed []byte) *Keychain {
	return &Keychain{priv: ed25519.NewKeyFromSeed(seed)}
}

// FromPassphrase derives a deterministic signing key from a passphrase and
// salt using Argon2id. The same credentials always yield the same identity.
func FromPassphrase(passphrase, salt []byte) *Keychain {
	seed := argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, seedLen)
	return FromSeed(seed)
}

// Seed returns the raw key seed (for storage in the user config dir).
func (k *Keychain) Seed() []byte {
	return k.priv.Seed()
}

// PubKey returns the hex-encoded public key.
func (k *Keychain) PubKey() (string, bool) {
	pub := k.priv.Public().(ed25519.PublicKey)
	return hex.EncodeToString(pub), true
}

// Sign signs the event with the keychain's private key.
func (k *Keychain) Sign(ev *event.Event) error {
	return ev.Sign(k.priv)
}

// LoggedOut is the null identity.
type LoggedOut struct{}

func (LoggedOut) PubKey() (string, bool) { return "", false }

func (LoggedOut) Sign(*event.Event) error { return errNoIdentity }

type identityError string

func (e identityError) Error() string { return string(e) }

const errNoIdentity = identityError("no identity available")
