package imagemeta

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// ScanFailure records one file a tolerant scan could not open. It is
// data, not an error: tolerant scans return these alongside the
// successes instead of failing.
type ScanFailure struct {
	// Path of the file that failed.
	Path string
	// Err is the underlying open or decode error.
	Err error
}

func (f ScanFailure) String() string {
	return fmt.Sprintf("%s: %v", f.Path, f.Err)
}

// PathIssue pairs a validation issue with the file it came from, for
// aggregated reporting over a whole scan.
type PathIssue struct {
	Path  string
	Issue ValidationIssue
}

// ScanResult holds the outcome of a bulk scan. Results are fully
// materialized: iterating never re-opens files and can be repeated.
type ScanResult struct {
	images   []*Image
	failures []ScanFailure
}

// Images iterates the successfully opened images in discovery order,
// regardless of which worker finished first. The sequence is
// restartable.
func (r *ScanResult) Images() iter.Seq[*Image] {
	return func(yield func(*Image) bool) {
		for _, img := range r.images {
			if !yield(img) {
				return
			}
		}
	}
}

// Len returns the number of successfully opened images.
func (r *ScanResult) Len() int { return len(r.images) }

// Failures returns the files that could not be opened, in discovery
// order.
func (r *ScanResult) Failures() []ScanFailure {
	out := make([]ScanFailure, len(r.failures))
	copy(out, r.failures)
	return out
}

// FailureCount returns the number of files that could not be opened.
func (r *ScanResult) FailureCount() int { return len(r.failures) }

// Issues aggregates the validation issues of every scanned image,
// tagged with the file they came from, without re-opening anything.
func (r *ScanResult) Issues() []PathIssue {
	var out []PathIssue
	for _, img := range r.images {
		for _, issue := range img.Issues() {
			out = append(out, PathIssue{Path: img.Path(), Issue: issue})
		}
	}
	return out
}

// ScanOption configures a bulk scan.
type ScanOption func(*scanOptions)

type scanOptions struct {
	parallel   bool
	failFast   bool
	workers    int
	extensions []string
}

func defaultScanOptions() *scanOptions {
	return &scanOptions{
		parallel: true,
		workers:  runtime.NumCPU(),
	}
}

// WithSequential runs the scan on the calling goroutine instead of a
// worker pool. Useful for deterministic debugging and for callers that
// already parallelize at a higher level.
func WithSequential() ScanOption {
	return func(o *scanOptions) {
		o.parallel = false
	}
}

// WithFailFast aborts the scan on the first file that fails to open,
// returning its error and no partial result. The default is to collect
// failures and keep going.
func WithFailFast() ScanOption {
	return func(o *scanOptions) {
		o.failFast = true
	}
}

// WithWorkers bounds the scan worker pool. The default is
// runtime.NumCPU(). Values below one are ignored.
func WithWorkers(n int) ScanOption {
	return func(o *scanOptions) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithExtensions overrides the ScanDir extension allow-list. Matching is
// case-insensitive; extensions may be given with or without the leading
// dot. Scan ignores this option (the glob pattern decides).
func WithExtensions(exts ...string) ScanOption {
	return func(o *scanOptions) {
		o.extensions = exts
	}
}

// Scan opens every file matching a glob pattern. The pattern supports
// `**` for recursive descent:
//
//	result, err := imagemeta.Scan("photos/**/*.jpg")
//	if err != nil {
//		return err
//	}
//	for img := range result.Images() {
//		fmt.Println(img.Path())
//	}
//
// Matches are sorted before dispatch, so discovery order (and therefore
// result order) is deterministic for a given filesystem state. Files are
// opened in parallel by default; failures are collected per file unless
// WithFailFast is given.
func Scan(pattern string, opts ...ScanOption) (*ScanResult, error) {
	options := defaultScanOptions()
	for _, opt := range opts {
		opt(options)
	}

	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}

	paths := make([]string, 0, len(matches))
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		paths = append(paths, match)
	}
	sort.Strings(paths)

	return runScan(paths, options)
}

// ScanDir opens every image file directly inside a directory
// (non-recursive). Files are filtered by a case-insensitive extension
// allow-list that defaults to every supported format; override it with
// WithExtensions.
func ScanDir(dir string, opts ...ScanOption) (*ScanResult, error) {
	options := defaultScanOptions()
	for _, opt := range opts {
		opt(options)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	allowed := extensionSet(options.extensions)
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := allowed[ext]; !ok {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	return runScan(paths, options)
}

// extensionSet normalizes an allow-list into lowercase dotted form. An
// empty list means every supported format's extensions.
func extensionSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{})
	if len(exts) == 0 {
		for _, f := range AllFormats() {
			for _, ext := range f.Extensions() {
				set[ext] = struct{}{}
			}
		}
		return set
	}
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}

// runScan opens paths with the configured concurrency and failure
// policy. paths must already be in discovery order; results keep that
// order by indexing completions into position.
func runScan(paths []string, options *scanOptions) (*ScanResult, error) {
	images := make([]*Image, len(paths))
	errs := make([]error, len(paths))

	if !options.parallel {
		for i, path := range paths {
			img, err := openRecovered(path)
			if err != nil {
				if options.failFast {
					return nil, fmt.Errorf("%s: %w", path, err)
				}
				errs[i] = err
				continue
			}
			images[i] = img
		}
		return assembleResult(paths, images, errs), nil
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(options.workers)

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			img, err := openRecovered(path)
			if err != nil {
				if options.failFast {
					return fmt.Errorf("%s: %w", path, err)
				}
				errs[i] = err
				return nil
			}
			images[i] = img
			return nil
		})
	}

	// In fail-fast mode already-dispatched tasks run to completion; their
	// results are discarded with the partial slices.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return assembleResult(paths, images, errs), nil
}

// openRecovered opens one file, converting a decode panic into that
// file's error so one malformed file cannot take down a whole scan.
func openRecovered(path string) (img *Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			img = nil
			err = &FormatError{Path: path, Reason: fmt.Sprintf("panic while decoding: %v", r)}
		}
	}()
	return Open(path)
}

func assembleResult(paths []string, images []*Image, errs []error) *ScanResult {
	result := &ScanResult{}
	for i := range paths {
		switch {
		case images[i] != nil:
			result.images = append(result.images, images[i])
		case errs[i] != nil:
			result.failures = append(result.failures, ScanFailure{Path: paths[i], Err: errs[i]})
		}
	}
	return result
}

// OpenMany opens multiple image files concurrently.
//
// Files are opened in parallel using up to runtime.NumCPU() goroutines.
// Results are returned in the same order as the input paths. If any file
// fails to open, OpenMany returns that error and no results; use Scan
// for tolerant bulk behavior.
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//
//	images, err := imagemeta.OpenMany(ctx, paths...)
func OpenMany(ctx context.Context, paths ...string) ([]*Image, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	results := make([]*Image, len(paths))

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			img, err := Open(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = img
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
