package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/graphcheck/blobstore"
)

// ReadLimiter throttles store reads. resource.Controller implements it.
type ReadLimiter interface {
	AcquireIO(ctx context.Context, bytes int) error
}

// FileError reports a failure to open a store file.
type FileError struct {
	Name string
	Err  error
}

func (e *FileError) Error() string { return e.Name + ": " + e.Err.Error() }

func (e *FileError) Unwrap() error { return e.Err }

// recordFile gives id-addressed access to the fixed-size records of a blob.
type recordFile struct {
	name       string
	blob       blobstore.Blob
	recordSize int
	count      uint64
	limiter    ReadLimiter
}

func openRecordFile(ctx context.Context, bs blobstore.BlobStore, name string, magic [4]byte, limiter ReadLimiter) (*recordFile, error) {
	blob, err := bs.Open(ctx, name)
	if err != nil {
		return nil, &FileError{Name: name, Err: err}
	}

	header := make([]byte, HeaderSize)
	n, err := blob.ReadAt(ctx, header, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		_ = blob.Close()
		return nil, &FileError{Name: name, Err: fmt.Errorf("read header: %w", err)}
	}

	recordSize, err := decodeHeader(header[:n], magic)
	if err != nil {
		_ = blob.Close()
		return nil, &FileError{Name: name, Err: err}
	}

	// A trailing partial record is treated as absent.
	count := uint64(blob.Size()-HeaderSize) / uint64(recordSize)

	return &recordFile{
		name:       name,
		blob:       blob,
		recordSize: recordSize,
		count:      count,
		limiter:    limiter,
	}, nil
}

// read fills buf with record id. It returns false when the id lies beyond
// the end of the file.
func (f *recordFile) read(ctx context.Context, id uint64, buf []byte) (bool, error) {
	if id >= f.count {
		return false, nil
	}
	if f.limiter != nil {
		if err := f.limiter.AcquireIO(ctx, len(buf)); err != nil {
			return false, err
		}
	}

	off := int64(HeaderSize) + int64(id)*int64(f.recordSize)
	if _, err := f.blob.ReadAt(ctx, buf, off); err != nil {
		return false, fmt.Errorf("read %s record %d: %w", f.name, id, err)
	}
	return true, nil
}

func (f *recordFile) close() error {
	return f.blob.Close()
}
