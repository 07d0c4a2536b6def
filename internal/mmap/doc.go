// Package mmap maps store files read-only into memory.
//
// Node and dynamic record stores are read at random fixed-size offsets
// during a full check. Mapping the file turns each record fetch into a
// memory copy instead of a pread(2) call.
//
// Unix uses mmap(2)/madvise(2); Windows uses CreateFileMapping and
// MapViewOfFile (advice is a no-op there).
//
// A Mapping is safe for concurrent reads. Close is idempotent; callers must
// not use slices returned by Bytes after Close.
package mmap
