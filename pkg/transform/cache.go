package transform

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync/atomic"
	"time"

	"go.etcd.io/bbolt"
)

var cacheBucket = []byte("transformations")

const cacheOpenTimeout = time.Second

// Cache memoizes a transformer's answers in a bbolt database, keyed by a namespace and
// the docstring text. Reruns over unchanged docstrings then skip the model entirely.
type Cache struct {
	db        *bbolt.DB
	inner     Transformer
	namespace string
	hits      atomic.Int64
	misses    atomic.Int64
}

// NewCache opens (or creates) the cache database at path in front of inner. Answers
// are only shared between transformers using the same namespace, typically the model
// name plus the prompt context digest.
func NewCache(path, namespace string, inner Transformer) (*Cache, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: cacheOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("open transform cache: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, bucketErr := tx.CreateBucketIfNotExists(cacheBucket)

		return bucketErr
	})
	if err != nil {
		db.Close()

		return nil, fmt.Errorf("init transform cache: %w", err)
	}

	return &Cache{db: db, inner: inner, namespace: namespace}, nil
}

// Transform implements Transformer. Only successful answers are stored.
func (c *Cache) Transform(ctx context.Context, text string) (string, error) {
	key := c.key(text)

	var cached []byte

	err := c.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(cacheBucket).Get(key); v != nil {
			cached = append([]byte(nil), v...)
		}

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("read transform cache: %w", err)
	}

	if cached != nil {
		c.hits.Add(1)

		return string(cached), nil
	}

	c.misses.Add(1)

	answer, err := c.inner.Transform(ctx, text)
	if err != nil {
		return "", err
	}

	err = c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(cacheBucket).Put(key, []byte(answer))
	})
	if err != nil {
		return "", fmt.Errorf("write transform cache: %w", err)
	}

	return answer, nil
}

// Hits returns the number of answers served from the cache.
func (c *Cache) Hits() int64 {
	return c.hits.Load()
}

// Misses returns the number of answers delegated to the inner transformer.
func (c *Cache) Misses() int64 {
	return c.misses.Load()
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) key(text string) []byte {
	h := sha256.New()
	h.Write([]byte(c.namespace))
	h.Write([]byte{0})
	h.Write([]byte(text))

	return h.Sum(nil)
}
