// Package lru bounds the number of decoded tiles held in memory: a
// recency-ordered set of tile signatures with a fixed capacity that
// reports which signature fell off the tail.
package lru

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ashgrove-labs/terrarium/internal/signature"
)

// Bound is not safe for concurrent use on its own; the tile store
// serializes access under its own mutex.
type Bound struct {
	cache    *lru.Cache[signature.Signature, struct{}]
	evicted  signature.Signature
	hadEvict bool
}

// NewBound constructs a Bound with the given fixed capacity. capacity must
// be at least 1.
func NewBound(capacity int) (*Bound, error) {
	b := &Bound{}
	c, err := lru.NewWithEvict(capacity, func(key signature.Signature, _ struct{}) {
		b.evicted = key
		b.hadEvict = true
	})
	if err != nil {
		return nil, err
	}
	b.cache = c
	return b, nil
}

// Touch moves sig to the front on a hit; it is a no-op if sig is absent.
func (b *Bound) Touch(sig signature.Signature) {
	b.cache.Get(sig)
}

// Add inserts sig at the front. If the bound was already at capacity, the
// least-recently-used signature is evicted and returned.
func (b *Bound) Add(sig signature.Signature) (evicted signature.Signature, ok bool) {
	b.hadEvict = false
	b.cache.Add(sig, struct{}{})
	if b.hadEvict {
		return b.evicted, true
	}
	return signature.Signature{}, false
}

// Contains reports whether sig is currently tracked, without affecting
// recency order.
func (b *Bound) Contains(sig signature.Signature) bool {
	return b.cache.Contains(sig)
}

// Remove evicts sig explicitly, rolling back an Add whose decode failed.
func (b *Bound) Remove(sig signature.Signature) {
	b.cache.Remove(sig)
}

// Len returns the number of tracked signatures.
func (b *Bound) Len() int {
	return b.cache.Len()
}

// Keys returns all tracked signatures, most-recently-used last.
func (b *Bound) Keys() []signature.Signature {
	return b.cache.Keys()
}

// Clear empties the bound.
func (b *Bound) Clear() {
	b.cache.Purge()
}
