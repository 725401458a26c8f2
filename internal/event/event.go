// Package event defines signed replaceable events: the wire documents that
// carry owner profiles and pet state. The relay treats content as opaque;
// all fields live in labeled tag tuples.
package event

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Replaceable event kinds. For a given (kind, author, d-tag) the event with
// the highest CreatedAt wins.
const (
	KindOwnerProfile = 31125
	KindPetState     = 31124
)

// Event is a signed record. ID is the SHA-256 of the canonical serialization,
// Sig an Ed25519 signature over the ID by the author key.
type Event struct {
	ID        string     `json:"id"`
	PubKey    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"` // unix seconds
	Kind      int        `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig"`
}

// TagValue returns the first value of the first tag with the given name.
func (e *Event) TagValue(name string) (string, bool) {
	for _, t := range e.Tags {
		if len(t) >= 2 && t[0] == name {
			return t[1], true
		}
	}
	return "", false
}

// TagsNamed returns all tags with the given name.
func (e *Event) TagsNamed(name string) [][]string {
	var out [][]string
	for _, t := range e.Tags {
		if len(t) >= 1 && t[0] == name {
			out = append(out, t)
		}
	}
	return out
}

// Identifier returns the replaceable-document identifier (the "d" tag).
func (e *Event) Identifier() (string, bool) {
	return e.TagValue("d")
}

// Created returns CreatedAt as a time.Time.
func (e *Event) Created() time.Time {
	return time.Unix(e.CreatedAt, 0).UTC()
}

// canonical returns the serialization the ID is computed over:
// [0, pubkey, created_at, kind, tags, content].
func (e *Event) canonical() ([]byte, error) {
	return json.Marshal([]any{0, e.PubKey, e.CreatedAt, e.Kind, e.Tags, e.Content})
}

// ComputeID returns the hex SHA-256 of the canonical serialization.
func (e *Event) ComputeID() (string, error) {
	b, err := e.canonical()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Sign fills PubKey, ID and Sig from the given private key.
func (e *Event) Sign(priv ed25519.PrivateKey) error {
	if len(priv) != ed25519.PrivateKeySize {
		return errors.New("bad private key size")
	}
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return errors.New("bad public key type")
	}
	e.PubKey = hex.EncodeToString(pub)

	id, err := e.ComputeID()
	if err != nil {
		return err
	}
	e.ID = id

	raw, err := hex.DecodeString(id)
	if err != nil {
		return err
	}
	e.Sig = hex.EncodeToString(ed25519.Sign(priv, raw))
	return nil
}

// Verify checks that ID matches the canonical serialization and that Sig is a
// valid signature by PubKey over the ID.
func (e *Event) Verify() error {
	id, err := e.ComputeID()
	if err != nil {
		return err
	}
	if id != e.ID {
		return errors.New("event id mismatch")
	}
	pub, err := hex.DecodeString(e.PubKey)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("bad pubkey: %w", err)
	}
	sig, err := hex.DecodeString(e.Sig)
	if err != nil {
		return fmt.Errorf("bad sig encoding: %w", err)
	}
	raw, err := hex.DecodeString(e.ID)
	if err != nil {
		return fmt.Errorf("bad id encoding: %w", err)
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), raw, sig) {
		return errors.New("bad signature")
	}
	return nil
}
