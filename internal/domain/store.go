package domain

// Fixed keys in the durable store. The store is never partitioned per
// profile: switching profiles overwrites the same entry.
const (
	KeyActiveProfile = "activeProfile"
	KeyLastActivity  = "lastActivity"
)

// KeyValueStore is the durable client-side storage (BoltDB + memory).
// Values are opaque bytes; callers choose the encoding.
type KeyValueStore interface {
	// Get returns the value and true, or nil and false when absent
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	Remove(key string) error
	Close() error
}
