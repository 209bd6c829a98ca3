// Package metadata is the local key/value table of the terminal client.
package metadata

import "context"

// Key names a metadata entry.
type Key string

const (
	// KeySession holds the sealed session blob.
	KeySession Key = "session"
	// KeySessionSalt holds the salt the session key is derived with.
	KeySessionSalt Key = "session_salt"
	// KeyRatings holds the last age-rating filter, comma separated.
	KeyRatings Key = "feed_ratings"
)

// Repository stores opaque values by key. Get returns (nil, nil) for
// missing keys.
type Repository interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Set(ctx context.Context, key Key, value []byte) error
	Delete(ctx context.Context, keys ...Key) error
}
