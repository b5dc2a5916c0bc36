package imagemeta

import (
	"context"
)

// The context-aware wrappers run the synchronous operation on a
// background goroutine and select against the context. Cancellation is
// advisory: it releases the caller immediately, but the in-flight work
// runs to completion in the background and its result is discarded.
// File decoding is CPU-bound with no safe interior interruption points,
// so there is nothing to tear down mid-parse.

type openResult struct {
	img *Image
	err error
}

type scanResult struct {
	res *ScanResult
	err error
}

// OpenContext opens a file, abandoning the wait if ctx is done first.
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//
//	img, err := imagemeta.OpenContext(ctx, "photo.jpg")
func OpenContext(ctx context.Context, path string, opts ...Option) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := make(chan openResult, 1)
	go func() {
		img, err := Open(path, opts...)
		ch <- openResult{img: img, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.img, r.err
	}
}

// ScanContext runs Scan, abandoning the wait if ctx is done first.
func ScanContext(ctx context.Context, pattern string, opts ...ScanOption) (*ScanResult, error) {
	return scanWithContext(ctx, func() (*ScanResult, error) {
		return Scan(pattern, opts...)
	})
}

// ScanDirContext runs ScanDir, abandoning the wait if ctx is done first.
func ScanDirContext(ctx context.Context, dir string, opts ...ScanOption) (*ScanResult, error) {
	return scanWithContext(ctx, func() (*ScanResult, error) {
		return ScanDir(dir, opts...)
	})
}

func scanWithContext(ctx context.Context, scan func() (*ScanResult, error)) (*ScanResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := make(chan scanResult, 1)
	go func() {
		res, err := scan()
		ch <- scanResult{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.res, r.err
	}
}
