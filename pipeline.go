package alpha2ds

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

var errCancelled = errors.New("alpha2ds: scan cancelled")

// match reports whether name is a visible regular file selected by the
// filter.
func (c *Converter) match(name string) bool {
	base := filepath.Base(name)
	// Ignore any hidden files, otherwise we end up fighting with things like Spotlight, etc.
	if base == "" || base[0] == '.' {
		return false
	}
	ok, _ := filepath.Match(c.opts.Filter, base)
	return ok
}

func (c *Converter) findImages(ctx context.Context, dir string) (<-chan string, <-chan error, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !c.match(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for _, file := range files {
			select {
			case out <- file:
			case <-ctx.Done():
				errc <- errCancelled
				return
			}
		}
	}()
	return out, errc, nil
}

// imageWorker converts each image in turn. Failures are logged and counted
// rather than stopping the batch.
func (c *Converter) imageWorker(ctx context.Context, in <-chan string) (<-chan error, *stats) {
	errc := make(chan error, 1)
	s := new(stats)
	go func() {
		defer close(errc)
		for file := range in {
			// The image in progress is always finished
			select {
			case <-ctx.Done():
				return
			default:
			}

			res, err := c.ConvertFile(file)
			if err != nil {
				c.printf("Error converting %s: %v\n", file, err)
				s.failed++
				continue
			}
			if res.Skipped {
				s.skipped++
			} else {
				s.converted++
			}
		}
	}()
	return errc, s
}

type stats struct {
	converted, skipped, failed int
}

// waitForPipeline waits for every stage to finish and returns the first
// error reported.
func waitForPipeline(errs ...<-chan error) error {
	var first error
	for err := range mergeErrors(errs...) {
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Run converts every image in dir matching the filter, in name order. An
// image that fails to convert doesn't stop the others; an error reporting
// the number of failures is returned at the end.
func (c *Converter) Run(ctx context.Context, path string) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	files, errc, err := c.findImages(ctx, dir)
	if err != nil {
		return err
	}

	// One worker only, a shared palette depends on the order of images
	werrc, s := c.imageWorker(ctx, files)

	if err := waitForPipeline(errc, werrc); err != nil {
		return err
	}

	c.debugf("Converted %d, skipped %d, failed %d\n", s.converted, s.skipped, s.failed)

	if s.failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrFailed, s.failed, s.converted+s.skipped+s.failed)
	}
	return nil
}

// ErrFailed is returned when one or more images of a batch failed to
// convert.
var ErrFailed = errors.New("alpha2ds: images failed to convert")
