package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blobbi/island/internal/event"
)

// Store persists signed events with latest-per-(kind, author, identifier)
// semantics: publishing replaces any older event for the same document.
type Store struct{ db *DB }

// NewStore constructs an event store.
func NewStore(db *DB) *Store { return &Store{db: db} }

// Publish inserts a replacement record. Older events for the same document
// are overwritten; an event older than the stored one is a silent no-op
// (replaceable-event semantics, not an error).
func (s *Store) Publish(ctx context.Context, ev event.Event) error {
	d, ok := ev.Identifier()
	if !ok {
		return errors.New("event missing d tag")
	}
	tags, err := json.Marshal(ev.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	const q = `
INSERT INTO events (id, pubkey, kind, d_tag, created_at, tags, content, sig)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (pubkey, kind, d_tag) DO UPDATE
SET id=EXCLUDED.id, created_at=EXCLUDED.created_at, tags=EXCLUDED.tags,
    content=EXCLUDED.content, sig=EXCLUDED.sig
WHERE EXCLUDED.created_at >= events.created_at`
	_, err = s.db.Pool.Exec(ctx, q,
		ev.ID, ev.PubKey, ev.Kind, d, ev.CreatedAt, tags, ev.Content, ev.Sig)
	return err
}

// QueryLatest returns the stored (already latest-wins) events for the given
// kind and author, newest first.
func (s *Store) QueryLatest(ctx context.Context, kind int, author string) ([]event.Event, error) {
	const q = `
SELECT id, pubkey, kind, created_at, tags, content, sig
FROM events
WHERE kind=$1 AND pubkey=$2
ORDER BY created_at DESC`
	rows, err := s.db.Pool.Query(ctx, q, kind, author)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []event.Event
	for rows.Next() {
		var (
			ev   event.Event
			tags []byte
		)
		if err = rows.Scan(&ev.ID, &ev.PubKey, &ev.Kind, &ev.CreatedAt, &tags, &ev.Content, &ev.Sig); err != nil {
			return nil, err
		}
		if err = json.Unmarshal(tags, &ev.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// CountEvents returns the number of stored events (relay stats).
func (s *Store) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.Pool.QueryRow(ctx, `SELECT count(*) FROM events`).Scan(&n)
	return n, err
}
