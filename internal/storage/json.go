package storage

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
)

// GetJSON reads key and decodes it into v. ok is false when the key is absent
// or holds an empty string; v is left untouched in that case.
func GetJSON(ctx context.Context, kv KV, key string, v any) (bool, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", key, err)
	}
	if !ok || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and writes it under key in a single Set call.
func SetJSON(ctx context.Context, kv KV, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, string(b)); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// EntryID returns the "id" member of a JSON object. String ids are returned
// as-is and numeric ids in their literal form. ok is false for anything else.
func EntryID(raw json.RawMessage) (string, bool) {
	var head struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &head); err != nil || len(head.ID) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(head.ID, &s); err == nil {
		return s, s != ""
	}
	var n json.Number
	if err := json.Unmarshal(head.ID, &n); err == nil {
		return n.String(), true
	}
	return "", false
}
