// Package resource implements content-addressed payloads that may defer
// their bytes behind a one-shot acquirer (component G, spec §4.6): a
// Resource carries a Checksum always, and optionally a capability to
// fetch the backing value exactly once.
package resource

import (
	"crypto/sha256"
	"fmt"
)

// Checksum is a content hash identifying a Resource's backing value,
// independent of whether that value is present locally.
type Checksum [32]byte

func (c Checksum) String() string { return fmt.Sprintf("%x", [32]byte(c)) }

// Hasher computes a Checksum for a value of type T. New takes the Hasher
// as an argument; the package's DefaultHasher is a SHA-256 digest of
// fmt.Sprintf("%#v", v), and callers with a more precise notion of
// content identity can pass their own Hasher instead.
type Hasher[T any] interface {
	Hash(v T) Checksum
}

// DefaultHasher hashes a value's Go-syntax representation. It is a
// reasonable default for plain data types; it is not suitable for values
// containing pointers, channels, or other identity-sensitive fields.
type DefaultHasher[T any] struct{}

func (DefaultHasher[T]) Hash(v T) Checksum {
	return sha256.Sum256([]byte(fmt.Sprintf("%#v", v)))
}

// Acquirer is a capability to fetch a Resource's backing value. Reify
// calls it until one call succeeds: a failed call leaves it in place,
// and the Resource is returned inside the ReifyError for another
// attempt; after a success Reify replaces it with one that returns the
// fetched value, so it is never called again.
type Acquirer[T any] func() (T, error)

// Resource is a content-addressed, optionally-lazy payload. The zero
// value is not usable; construct with New or NewRef.
type Resource[T any] struct {
	checksum Checksum
	acquire  Acquirer[T]
}

// New returns a Resource wrapping v directly: Reify on it always
// succeeds immediately and never consumes an Acquirer.
func New[T any](v T, hasher Hasher[T]) *Resource[T] {
	sum := hasher.Hash(v)
	value := v
	return &Resource[T]{
		checksum: sum,
		acquire: func() (T, error) {
			return value, nil
		},
	}
}

// NewRef returns a Resource identified by checksum whose value is not
// yet available locally; acquire is called by each Reify until one call
// succeeds, and not again after that.
func NewRef[T any](checksum Checksum, acquire Acquirer[T]) *Resource[T] {
	return &Resource[T]{checksum: checksum, acquire: acquire}
}

// Checksum returns the Resource's content identity.
func (r *Resource[T]) Checksum() Checksum { return r.checksum }

// CloneRef returns a new Resource sharing this one's Checksum but with
// no Acquirer, suitable for sending a reference to a peer that already
// has (or can separately fetch) the backing value — spec's clone_ref.
func (r *Resource[T]) CloneRef() *Resource[T] {
	return &Resource[T]{checksum: r.checksum}
}

// Reify resolves the Resource to its backing value, invoking the
// Acquirer if one is present. On success the Acquirer is replaced by one
// returning the fetched value, so a Resource only ever performs one
// successful fetch and later calls return that cached value. On failure
// the Resource (Acquirer included) is returned inside a ReifyError so
// the caller can retry.
func (r *Resource[T]) Reify() (T, error) {
	var zero T

	if r.acquire == nil {
		return zero, &ReifyError[T]{Source: fmt.Errorf("resource: %s has no acquirer and no value", r.checksum), Resource: r}
	}

	v, err := r.acquire()
	if err != nil {
		return zero, &ReifyError[T]{Source: err, Resource: r}
	}

	r.acquire = func() (T, error) { return v, nil }
	return v, nil
}

// ReifyError reports a failed Reify attempt while retaining the
// Resource that produced it, so the caller can try again later without
// re-deriving the Checksum.
type ReifyError[T any] struct {
	Source   error
	Resource *Resource[T]
}

func (e *ReifyError[T]) Error() string {
	return fmt.Sprintf("resource: reify %s: %v", e.Resource.checksum, e.Source)
}

func (e *ReifyError[T]) Unwrap() error { return e.Source }
