package alpha2ds

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is how long a file must be left alone before watch mode
// converts it.
const DefaultDelay = 500 * time.Millisecond

// debouncer coalesces rapid event bursts into a single callback per file.
type debouncer struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	delay  time.Duration
	onFire func(path string)
}

func newDebouncer(delay time.Duration, onFire func(path string)) *debouncer {
	return &debouncer{
		timers: make(map[string]*time.Timer),
		delay:  delay,
		onFire: onFire,
	}
}

func (d *debouncer) trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[path]; ok {
		t.Reset(d.delay)
		return
	}
	d.timers[path] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.timers, path)
		d.mu.Unlock()
		d.onFire(path)
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for path, t := range d.timers {
		t.Stop()
		delete(d.timers, path)
	}
}

// forward returns a debouncer callback that hands each path to ready, giving
// up once done is closed.
func forward(ready chan<- string, done <-chan struct{}) func(string) {
	return func(path string) {
		select {
		case ready <- path:
		case <-done:
		}
	}
}

// Watch converts every matching image in dir and then keeps converting
// images as they are created or written until ctx is cancelled. Images are
// still converted one at a time.
func (c *Converter) Watch(ctx context.Context, path string, delay time.Duration) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	// Failures have already been logged, keep watching regardless
	if err := c.Run(ctx, dir); err != nil && !errors.Is(err, ErrFailed) {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	c.debugf("Watching %s\n", dir)

	ready := make(chan string, 16)
	done := make(chan struct{})
	defer close(done)

	db := newDebouncer(delay, forward(ready, done))
	defer db.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if filepath.Dir(ev.Name) != dir || !c.match(ev.Name) {
				continue
			}
			db.trigger(ev.Name)

		case file := <-ready:
			if info, err := os.Stat(file); err != nil || !info.Mode().IsRegular() {
				continue
			}
			if _, err := c.ConvertFile(file); err != nil {
				c.printf("Error converting %s: %v\n", file, err)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.printf("Watcher error: %v\n", err)
		}
	}
}
