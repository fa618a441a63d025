package payload

import (
	"encoding/json"
	"fmt"
	"time"
)

// EntryVersion is the schema version written into every cache entry.
// Entries carrying another version are treated as corrupt.
const EntryVersion = 1

// CacheEntry is the value stored under a cache key
type CacheEntry struct {
	Version int      `json:"v"`
	Payload *Payload `json:"payload"`
}

// LockEntry is the sentinel stored under a lock key
type LockEntry struct {
	Owner      string    `json:"owner"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// EncodeEntry serializes p as a versioned cache entry
func EncodeEntry(p *Payload) ([]byte, error) {
	if err := validate(p); err != nil {
		return nil, err
	}
	data, err := json.Marshal(CacheEntry{Version: EntryVersion, Payload: p})
	if err != nil {
		return nil, fmt.Errorf("payload: encode entry: %w", err)
	}
	return data, nil
}

// DecodeEntry parses and validates a cache entry. Every failure is
// ErrCorruptEntry.
func DecodeEntry(data []byte) (*Payload, error) {
	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, ErrCorrupt("decode", err)
	}
	if entry.Version != EntryVersion {
		return nil, ErrCorrupt(fmt.Sprintf("version %d, want %d", entry.Version, EntryVersion), nil)
	}
	if err := validate(entry.Payload); err != nil {
		return nil, err
	}
	return entry.Payload, nil
}

// EncodeLock serializes a lock sentinel
func EncodeLock(owner string, acquiredAt time.Time) []byte {
	// LockEntry has no values json.Marshal can reject
	data, _ := json.Marshal(LockEntry{Owner: owner, AcquiredAt: acquiredAt.UTC()})
	return data
}

// DecodeLock parses a lock sentinel
func DecodeLock(data []byte) (*LockEntry, error) {
	var lock LockEntry
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, ErrCorrupt("decode lock", err)
	}
	if lock.Owner == "" {
		return nil, ErrCorrupt("lock without owner", nil)
	}
	return &lock, nil
}

func validate(p *Payload) error {
	switch {
	case p == nil:
		return ErrCorrupt("missing payload", nil)
	case p.Subject.ID == "":
		return ErrCorrupt("missing subject id", nil)
	case len(p.Image) == 0:
		return ErrCorrupt("missing image", nil)
	case p.GeneratedAt.IsZero():
		return ErrCorrupt("missing generation time", nil)
	}
	return nil
}
