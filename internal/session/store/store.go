// Package store provides the durable client-side key-value storage the
// session manager and notification tracker persist into - the localStorage
// analog of the browser client. Plain string keys, no schema versioning.
package store

import "errors"

// ErrNotFound is returned by Get when the key has never been set or was
// deleted. All implementations share this sentinel.
var ErrNotFound = errors.New("key not found")

type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}
