package storage

import "context"

// KV is the durable key-value contract the lookbook stores are built on.
// Values are opaque strings; callers own their JSON encoding. There are no
// transactions: each call is an independent read or write.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Entry is a single key/value pair as returned by Enumerator.
type Entry struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	// UpdatedAt is RFC 3339, empty when the backend does not track it.
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Enumerator is implemented by backends that can list their contents.
type Enumerator interface {
	Entries(ctx context.Context) ([]Entry, error)
}
