package types

// KeyManager creates and hashes the keys of one encoding.
// Implementations are stateless after construction and safe for concurrent use.
type KeyManager[K comparable] interface {
	// Name identifies the encoding (e.g. "fixed64", "varlen", "object").
	Name() string
	// Make returns the key for the logical id.
	Make(id uint64) K
	// Hash returns the hash of k combined with seed.
	Hash(k K, seed uint64) uint64
	// Size returns the number of bytes k occupies.
	Size(k K) int
}

// ValueManager creates, updates and consumes the values of one encoding.
// Implementations are stateless after construction and safe for concurrent use.
type ValueManager[V any] interface {
	// Name identifies the encoding.
	Name() string
	// Make returns the value written by an upsert of the logical id.
	Make(id uint64) V
	// Modify computes the read-modify-write update of old.
	// loaded is false if the key did not exist yet.
	Modify(old V, loaded bool, delta uint64) V
	// Digest consumes a value read from the engine and returns a checksum of it.
	Digest(v V) uint64
	// Size returns the number of bytes v occupies.
	Size(v V) int
}
