// Package journal keeps a local, append-only record of registration
// extrinsics submitted by paractl.
package journal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"
)

// Entry is one submitted registration.
type Entry struct {
	ID          string    `json:"id"`
	ParaID      uint64    `json:"paraId"`
	Nonce       uint64    `json:"nonce"`
	Signer      string    `json:"signer"`
	Endpoint    string    `json:"endpoint"`
	Status      string    `json:"status"`
	BlockHash   string    `json:"blockHash"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Journal is a pebble backed store of entries ordered by submission time.
type Journal struct {
	db *pebble.DB
}

// Open opens or creates a journal in dir.
func Open(dir string) (*Journal, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal at %s: %w", dir, err)
	}
	return &Journal{db: db}, nil
}

// Append stores e under a new time ordered id and returns the stored entry.
func (j *Journal) Append(e Entry) (Entry, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Entry{}, fmt.Errorf("failed to generate journal id: %w", err)
	}
	e.ID = id.String()
	if e.SubmittedAt.IsZero() {
		e.SubmittedAt = time.Now().UTC()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return Entry{}, err
	}
	if err := j.db.Set([]byte(e.ID), data, pebble.Sync); err != nil {
		return Entry{}, fmt.Errorf("failed to write journal entry: %w", err)
	}
	return e, nil
}

// List returns all entries, oldest first.
func (j *Journal) List() ([]Entry, error) {
	it, err := j.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var entries []Entry
	for it.First(); it.Valid(); it.Next() {
		var e Entry
		if err := json.Unmarshal(it.Value(), &e); err != nil {
			return nil, fmt.Errorf("corrupt journal entry %s: %w", it.Key(), err)
		}
		entries = append(entries, e)
	}
	return entries, it.Error()
}

// Close flushes and closes the journal.
func (j *Journal) Close() error {
	return j.db.Close()
}
