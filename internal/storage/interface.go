package storage

import "errors"

// ErrNotFound is returned by Retrieve when no object exists under the
// given name. Callers rely on it to distinguish "never written" from
// transport failures.
var ErrNotFound = errors.New("object not found")

// Interface defines the contract for blob storage operations
type Interface interface {
	Store(filename string, data []byte) error
	Retrieve(filename string) ([]byte, error)
	List(prefix string) ([]string, error)
	Delete(filename string) error
}
