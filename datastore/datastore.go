// Package datastore defines the embedder interface of §6.2: the core never
// inspects key or value bytes, only routes read/apply calls to whatever
// backend a deployment plugs in. Grounded on the teacher's own pluggable
// `Shard` (storage/storage.go), which wraps an in-process map, Postgres
// (storage/postgres.go), or MongoDB (storage/mongo.go) behind the same
// Insert/Update/Read calls; the sub-packages here (memstore, pgstore,
// mongostore) are the equivalent backends for this protocol's read/apply
// shape.
package datastore

// Store is the read/apply embedder contract: Read returns whatever values
// are present for the requested keys (a missing key is simply absent from
// the result, not an error), and Apply atomically persists a write set.
type Store interface {
	Read(keys [][]byte) (map[string][]byte, error)
	Apply(writes map[string][]byte) error
}
