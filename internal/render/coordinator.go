// Package render drives frame production: it fans independent frame tasks
// out to a bounded worker pool, persists results through the atomic frame
// store and enforces resumability.
package render

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/zoomcomposer/internal/codec"
	"github.com/ivlev/zoomcomposer/internal/compositor"
	"github.com/ivlev/zoomcomposer/internal/timeline"
)

// FrameError reports the first frame that failed to compose or persist. The
// run aborts on it; frames already written stay behind for a resumed run.
type FrameError struct {
	Index int
	Err   error
}

func (e *FrameError) Error() string { return fmt.Sprintf("frame %06d: %v", e.Index, e.Err) }

func (e *FrameError) Unwrap() error { return e.Err }

type Coordinator struct {
	Stack   *compositor.Stack
	Store   *Store
	Codec   codec.Codec
	Workers int
	// Resume skips frames the store already holds a valid file for.
	Resume bool
	// Progress draws a terminal progress bar when set.
	Progress bool
}

type task struct {
	index int
	coord float64
	path  string
}

// Run renders every frame of the timeline into the store. Workers claim
// tasks from a shared channel; the first error cancels the remaining work
// and is returned.
func (c *Coordinator) Run(ctx context.Context, frames []timeline.Frame) error {
	tasks := make([]task, len(frames))
	for k, fr := range frames {
		tasks[k] = task{index: fr.Index, coord: fr.Coord, path: c.Store.FramePath(fr.Index)}
	}
	return c.run(ctx, tasks)
}

// RunPreview renders one half-blend composite per adjacent image pair, for
// inspecting seams before committing to a full render.
func (c *Coordinator) RunPreview(ctx context.Context) error {
	tasks := make([]task, c.Stack.Count()-1)
	for i := range tasks {
		tasks[i] = task{index: i, coord: float64(i) + 0.5, path: c.Store.PairPath(i)}
	}
	return c.run(ctx, tasks)
}

func (c *Coordinator) run(ctx context.Context, tasks []task) error {
	workers := c.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	var bar *progressbar.ProgressBar
	if c.Progress {
		bar = progressbar.NewOptions(len(tasks),
			progressbar.OptionSetDescription("rendering"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	g, ctx := errgroup.WithContext(ctx)

	jobs := make(chan task)
	g.Go(func() error {
		defer close(jobs)
		for _, t := range tasks {
			select {
			case jobs <- t:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			// Each worker owns its layer cache; the only shared state is the
			// store, and no two workers ever claim the same frame index.
			sess := c.Stack.NewSession()
			for t := range jobs {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := c.render(sess, t); err != nil {
					return err
				}
				if bar != nil {
					bar.Add(1)
				}
			}
			return nil
		})
	}

	return g.Wait()
}

func (c *Coordinator) render(sess *compositor.Session, t task) error {
	if c.Resume && c.Store.Valid(t.path) {
		return nil
	}
	img, err := sess.Compose(t.coord)
	if err != nil {
		return &FrameError{Index: t.index, Err: err}
	}
	if err := c.Store.Write(t.path, img, c.Codec); err != nil {
		return &FrameError{Index: t.index, Err: err}
	}
	return nil
}
