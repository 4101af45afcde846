package parallel

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/msalah0e/h2canvas/internal/ui"
	"golang.org/x/sync/errgroup"
)

// Result holds the outcome of a parallel task.
type Result[T any] struct {
	Name    string
	OK      bool
	Err     error
	Value   T
	Elapsed time.Duration
}

// Task is a function that runs in parallel.
type Task[T any] struct {
	Name string
	Fn   func(ctx context.Context) (T, error)
}

// Reporter observes task progress. Calls are serialized.
type Reporter interface {
	Started(name string)
	Finished(name string, err error, elapsed time.Duration)
}

// Run executes tasks in parallel with the given concurrency limit.
// Returns results in the order tasks were submitted. A failing task does
// not cancel the others.
func Run[T any](ctx context.Context, tasks []Task[T], concurrency int, rep Reporter) []Result[T] {
	if concurrency < 1 {
		concurrency = 4
	}

	results := make([]Result[T], len(tasks))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, task := range tasks {
		g.Go(func() error {
			start := time.Now()

			if rep != nil {
				mu.Lock()
				rep.Started(task.Name)
				mu.Unlock()
			}

			var (
				value T
				err   error
			)
			if err = gctx.Err(); err == nil {
				value, err = task.Fn(gctx)
			}
			elapsed := time.Since(start)

			mu.Lock()
			results[i] = Result[T]{Name: task.Name, OK: err == nil, Err: err, Value: value, Elapsed: elapsed}
			if rep != nil {
				rep.Finished(task.Name, err, elapsed)
			}
			mu.Unlock()

			return nil // failures are collected, not propagated
		})
	}

	_ = g.Wait()
	return results
}

// Printer reports progress as terminal lines.
type Printer struct {
	W io.Writer
}

func (p Printer) Started(name string) {
	fmt.Fprintf(p.W, "  %s %s...\n", ui.Subtle.Sprint("⟳"), name)
}

func (p Printer) Finished(name string, err error, elapsed time.Duration) {
	if err != nil {
		fmt.Fprintf(p.W, "  %s %s %s\n", ui.StatusIcon(false), name, ui.Bad.Sprintf("(%v)", err))
		return
	}
	fmt.Fprintf(p.W, "  %s %s %s\n", ui.StatusIcon(true), name, ui.Subtle.Sprintf("%.1fs", elapsed.Seconds()))
}
