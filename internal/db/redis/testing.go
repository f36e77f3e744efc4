package redis

import "github.com/redis/rueidis"

// NewStoreForTest wraps a prepared client (typically a rueidis mock).
func NewStoreForTest(c rueidis.Client, keyPrefix string) *Store {
	return &Store{client: c, prefix: keyPrefix}
}
