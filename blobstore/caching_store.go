package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultBlockSize is the cache block size used when none is configured.
const DefaultBlockSize = 64 * 1024

type blockKey struct {
	name  string
	block int64
}

// CachingStore wraps a BlobStore and adds block-level read caching.
//
// Remote stores answer every record fetch with a ranged GET. Record stores
// are read in id order within a label index range, so caching whole blocks
// turns thousands of small reads into a few large ones. Concurrent misses on
// the same block are collapsed into one inner read.
type CachingStore struct {
	inner     BlobStore
	cache     *lru.Cache[blockKey, []byte]
	group     singleflight.Group
	blockSize int64

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachingStore creates a new CachingStore holding up to capacity blocks.
// blockSize defaults to DefaultBlockSize if <= 0.
func NewCachingStore(inner BlobStore, capacity int, blockSize int64) (*CachingStore, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	c, err := lru.New[blockKey, []byte](capacity)
	if err != nil {
		return nil, err
	}
	return &CachingStore{
		inner:     inner,
		cache:     c,
		blockSize: blockSize,
	}, nil
}

// Open opens a blob whose reads go through the block cache.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &cachingBlob{store: s, inner: b, name: name}, nil
}

// Put writes through to the inner store and drops cached blocks of the blob.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.inner.Put(ctx, name, data); err != nil {
		return err
	}
	for _, k := range s.cache.Keys() {
		if k.name == name {
			s.cache.Remove(k)
		}
	}
	return nil
}

// List delegates to the inner store.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Stats returns cache hit and miss counts.
func (s *CachingStore) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

type cachingBlob struct {
	store *CachingStore
	inner Blob
	name  string
}

func (b *cachingBlob) Close() error {
	return b.inner.Close()
}

func (b *cachingBlob) Size() int64 {
	return b.inner.Size()
}

func (b *cachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	size := b.inner.Size()
	if off < 0 || off >= size {
		return 0, io.EOF
	}

	bs := b.store.blockSize
	end := min(off+int64(len(p)), size)

	total := 0
	for blk := off / bs; blk*bs < end; blk++ {
		data, err := b.block(ctx, blk)
		if err != nil {
			return total, err
		}

		blkStart := blk * bs
		from := max(off, blkStart) - blkStart
		to := min(end, blkStart+int64(len(data))) - blkStart
		if to <= from {
			break
		}
		total += copy(p[max(off, blkStart)-off:], data[from:to])
	}

	if total < len(p) {
		return total, io.EOF
	}
	return total, nil
}

// block returns the cached block, loading it from the inner blob on a miss.
func (b *cachingBlob) block(ctx context.Context, blk int64) ([]byte, error) {
	key := blockKey{name: b.name, block: blk}
	if data, ok := b.store.cache.Get(key); ok {
		b.store.hits.Add(1)
		return data, nil
	}
	b.store.misses.Add(1)

	v, err, _ := b.store.group.Do(fmt.Sprintf("%s/%d", b.name, blk), func() (any, error) {
		if data, ok := b.store.cache.Get(key); ok {
			return data, nil
		}

		bs := b.store.blockSize
		n := min(bs, b.inner.Size()-blk*bs)
		buf := make([]byte, n)
		read, err := b.inner.ReadAt(ctx, buf, blk*bs)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		buf = buf[:read]
		b.store.cache.Add(key, buf)
		return buf, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}
