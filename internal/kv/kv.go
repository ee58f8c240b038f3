// Package kv is the durable key-value primitive underneath the
// persistence store: atomic whole-value set/get per key, no cross-key
// transactions.
package kv

// Store is the contract the persistence layer builds on. Get reports
// absence through ok rather than an error; every other failure is a
// real error.
type Store interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Remove(key string) error
	MultiRemove(keys []string) error
	Keys() ([]string, error)
	MultiGet(keys []string) (map[string][]byte, error)
}
