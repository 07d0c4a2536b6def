package graphcheck

import (
	"errors"
	"fmt"

	"github.com/hupe1980/graphcheck/blobstore"
	"github.com/hupe1980/graphcheck/internal/labelindex"
	"github.com/hupe1980/graphcheck/internal/store"
)

var (
	// ErrInvalidOptions is returned when Check is called with invalid options.
	ErrInvalidOptions = errors.New("invalid options")

	// ErrStoreNotFound is returned when a required store file does not exist.
	ErrStoreNotFound = errors.New("store not found")
)

// ErrCorruptStore indicates a store file whose structure cannot be trusted,
// so that no pass over it is possible.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrCorruptStore struct {
	File  string
	cause error
}

func (e *ErrCorruptStore) Error() string {
	return fmt.Sprintf("corrupt store file %s: %v", e.File, e.cause)
}

func (e *ErrCorruptStore) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrStoreNotFound, err)
	}
	if errors.Is(err, labelindex.ErrCorruptIndex) {
		return &ErrCorruptStore{File: labelindex.IndexName, cause: err}
	}
	if errors.Is(err, store.ErrCorruptHeader) {
		file := "unknown"
		var fe *store.FileError
		if errors.As(err, &fe) {
			file = fe.Name
		}
		return &ErrCorruptStore{File: file, cause: err}
	}

	return err
}
