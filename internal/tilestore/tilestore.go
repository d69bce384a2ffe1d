// Package tilestore coordinates the decoded-tile map, the LRU bound, the
// negative cache, and the downloader behind a single get/load/evict
// surface. Tiles move through four states per signature: absent,
// cached-on-disk, decoded, and known-missing; known-missing is terminal
// for the process lifetime.
package tilestore

import (
	"context"
	"os"
	"sync"

	"github.com/ashgrove-labs/terrarium/internal/errs"
	"github.com/ashgrove-labs/terrarium/internal/lru"
	"github.com/ashgrove-labs/terrarium/internal/raster"
	"github.com/ashgrove-labs/terrarium/internal/signature"
)

// Downloader is the subset of internal/download.Downloader the store
// depends on, narrowed to an interface so tests can inject a counting stub.
type Downloader interface {
	Download(ctx context.Context, sig signature.Signature, localPath string) error
}

// Decoder opens a tile file and returns a raster.Provider.
type Decoder func(path string) (raster.Provider, error)

// Entry is a decoded in-memory tile: immutable after construction,
// released when the store evicts it.
type Entry struct {
	Path   string
	Raster raster.Provider
	Width  int
	Height int
}

// PathResolver maps a signature to its absolute on-disk path. Kept as a
// function so callers can combine their own cache root, template, and
// extension without the store depending on those details.
type PathResolver func(sig signature.Signature) string

// Store is safe for concurrent use: all state transitions occur under a
// single mutex, which is released during network I/O so a slow download
// never blocks unrelated queries.
type Store struct {
	mu sync.Mutex

	decoded  map[signature.Signature]*Entry
	negative map[signature.Signature]struct{}
	bound    *lru.Bound

	resolvePath PathResolver
	downloader  Downloader
	decode      Decoder
}

// New constructs a Store with the given decoded-tile capacity.
func New(capacity int, resolvePath PathResolver, downloader Downloader, decode Decoder) (*Store, error) {
	bound, err := lru.NewBound(capacity)
	if err != nil {
		return nil, err
	}
	return &Store{
		decoded:     make(map[signature.Signature]*Entry),
		negative:    make(map[signature.Signature]struct{}),
		bound:       bound,
		resolvePath: resolvePath,
		downloader:  downloader,
		decode:      decode,
	}, nil
}

// Get returns the decoded entry for sig iff already present, touching its
// recency. Returns KindTileNotLoaded otherwise.
func (s *Store) Get(sig signature.Signature) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.decoded[sig]
	if !ok {
		return nil, errs.NewTileNotLoaded(sig.String())
	}
	s.bound.Touch(sig)
	return entry, nil
}

// Load materializes sig: negative cache first, then the decoded map, then
// the on-disk cache, then a download. A 404/410 from upstream enters the
// negative cache; transient network and filesystem failures do not.
func (s *Store) Load(ctx context.Context, sig signature.Signature) (*Entry, error) {
	s.mu.Lock()

	if _, absent := s.negative[sig]; absent {
		s.mu.Unlock()
		return nil, errs.NewTileAbsentUpstream(sig.String())
	}
	if entry, ok := s.decoded[sig]; ok {
		s.bound.Touch(sig)
		s.mu.Unlock()
		return entry, nil
	}

	path := s.resolvePath(sig)
	if _, err := os.Stat(path); err == nil {
		entry, decErr := s.decodeAndInsertLocked(sig, path)
		s.mu.Unlock()
		return entry, decErr
	}

	// The lock must not be held across network I/O.
	s.mu.Unlock()

	downloadErr := s.downloader.Download(ctx, sig, path)
	if downloadErr != nil {
		if errs.Is(downloadErr, errs.KindTileAbsentUpstream) {
			s.mu.Lock()
			s.negative[sig] = struct{}{}
			s.mu.Unlock()
		}
		return nil, downloadErr
	}

	s.mu.Lock()
	// A concurrent Load may have decoded sig while the lock was released;
	// inserting again would orphan its raster handle.
	if entry, ok := s.decoded[sig]; ok {
		s.bound.Touch(sig)
		s.mu.Unlock()
		return entry, nil
	}
	entry, decErr := s.decodeAndInsertLocked(sig, path)
	s.mu.Unlock()
	return entry, decErr
}

// decodeAndInsertLocked evicts the LRU victim, if any, before allocating
// the new decode so steady-state memory stays at capacity tiles, then
// decodes and inserts. Rolls back the LRU insertion on decode failure; the
// corrupt file is left on disk for the operator. Must be called with s.mu
// held.
func (s *Store) decodeAndInsertLocked(sig signature.Signature, path string) (*Entry, error) {
	victim, evicted := s.bound.Add(sig)
	if evicted {
		if old, ok := s.decoded[victim]; ok {
			old.Raster.Close()
			delete(s.decoded, victim)
		}
	}

	img, err := s.decode(path)
	if err != nil {
		s.bound.Remove(sig)
		return nil, errs.NewDecodeError(path, err)
	}

	width, height := img.Size()
	entry := &Entry{Path: path, Raster: img, Width: width, Height: height}
	s.decoded[sig] = entry
	return entry, nil
}

// UnloadAll clears the decoded map and LRU list, releasing every raster
// handle. The negative cache survives.
func (s *Store) UnloadAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.decoded {
		entry.Raster.Close()
	}
	s.decoded = make(map[signature.Signature]*Entry)
	s.bound.Clear()
}

// Len returns the number of currently decoded tiles.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.decoded)
}

// IsNegative reports whether sig is known to be absent upstream.
func (s *Store) IsNegative(sig signature.Signature) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.negative[sig]
	return ok
}
