// Package prefetch bulk-populates the on-disk tile cache ahead of
// queries: it enumerates the signatures covering a georectangle and
// downloads the missing ones with bounded parallelism. It never touches
// the decoded in-memory cache; decoding stays lazy per query.
package prefetch

import (
	"context"
	"math"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/semaphore"

	"github.com/ashgrove-labs/terrarium/internal/errs"
	"github.com/ashgrove-labs/terrarium/internal/geodesy"
	"github.com/ashgrove-labs/terrarium/internal/progress"
	"github.com/ashgrove-labs/terrarium/internal/signature"
)

// Downloader is the subset of internal/download.Downloader a Prefetcher
// depends on.
type Downloader interface {
	Download(ctx context.Context, sig signature.Signature, localPath string) error
}

// PathResolver maps a signature to its local absolute path.
type PathResolver func(sig signature.Signature) string

// Prefetcher holds the downloader, the path resolver, and the parallelism
// bound. It carries no state across Fetch calls.
type Prefetcher struct {
	downloader  Downloader
	resolvePath PathResolver
	parallelism int
}

// New constructs a Prefetcher with the given downloader, path resolver,
// and parallelism.
func New(downloader Downloader, resolvePath PathResolver, parallelism int) *Prefetcher {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Prefetcher{downloader: downloader, resolvePath: resolvePath, parallelism: parallelism}
}

// Report summarizes a Fetch call. RunID tags the run so log lines from
// concurrent prefetches can be correlated.
type Report struct {
	RunID      string
	Enumerated int
	Downloaded int
	AlreadyHad int
	Absent     int
	Failed     int
	FailedSigs []signature.Signature
}

// Fetch validates rect, enumerates the signatures covering it (meridian
// wrap is not handled), filters out tiles already on disk, and downloads
// the rest with at most the configured parallelism. One tile's failure
// never cancels its peers; failures are aggregated into the Report.
// Cancelling ctx stops new submissions and aborts in-flight downloads,
// whose partial ".part" files the downloader removes itself.
func (p *Prefetcher) Fetch(ctx context.Context, rect geodesy.Rectangle) (*Report, error) {
	if !rect.Valid() {
		return nil, errs.NewInvalidRect("rectangle must be non-empty with top > bottom, left <= right")
	}

	sigs := enumerate(rect)

	report := &Report{RunID: uuid.NewString(), Enumerated: len(sigs)}

	pending := lo.Filter(sigs, func(sig signature.Signature, _ int) bool {
		path := p.resolvePath(sig)
		if _, err := os.Stat(path); err == nil {
			report.AlreadyHad++
			return false
		}
		return true
	})

	bar := progress.New("downloading elevation tiles", len(pending))
	sem := semaphore.NewWeighted(int64(p.parallelism))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, sig := range pending {
		sig := sig
		if err := sem.Acquire(ctx, 1); err != nil {
			// Cancelled while waiting for a slot; stop submitting further
			// work. Already-dispatched downloads share ctx, so they abort
			// too, and are waited for below.
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			err := p.downloader.Download(ctx, sig, p.resolvePath(sig))
			bar.Add(1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.Downloaded++
			case errs.Is(err, errs.KindTileAbsentUpstream):
				report.Absent++
			default:
				report.Failed++
				report.FailedSigs = append(report.FailedSigs, sig)
			}
		}()
	}

	wg.Wait()
	bar.Finish()
	return report, nil
}

// enumerate lists every signature whose tile intersects rect:
// lat in [floor(bottom), floor(top)], lon in [floor(left), floor(right)].
func enumerate(rect geodesy.Rectangle) []signature.Signature {
	top := int(math.Floor(rect.TopLeft.Lat))
	bottom := int(math.Floor(rect.BottomRight.Lat))
	left := int(math.Floor(rect.TopLeft.Lon))
	right := int(math.Floor(rect.BottomRight.Lon))

	var sigs []signature.Signature
	for lat := bottom; lat <= top; lat++ {
		for lon := left; lon <= right; lon++ {
			sigs = append(sigs, signature.Signature{Lat: int8(lat), Lon: int16(lon)})
		}
	}
	return sigs
}
