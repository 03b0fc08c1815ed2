package batch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maauso/stickerconv/internal/fetch"
	"github.com/maauso/stickerconv/internal/sticker"
)

// DefaultWorkers is the number of conversions run concurrently.
const DefaultWorkers = 4

// Converter turns source bytes into a persisted sticker.
type Converter interface {
	Convert(ctx context.Context, src []byte, name string, hint sticker.Hint) (*sticker.Result, error)
}

// Outcome is the result of one list entry.
type Outcome struct {
	// Index is the position of the item in the input list.
	Index  int
	Item   Item
	Result *sticker.Result
	Err    error
	// Elapsed covers fetch and conversion.
	Elapsed time.Duration
}

// OK reports whether the item produced a sticker.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Result != nil
}

// Report collects the outcomes of a run in input order.
type Report struct {
	Outcomes []Outcome
}

// Succeeded returns the outcomes that produced a sticker.
func (r *Report) Succeeded() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Failed returns the outcomes that ended in an error.
func (r *Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Degraded counts successful stickers that exceed their size ceiling.
func (r *Report) Degraded() int {
	n := 0
	for _, o := range r.Succeeded() {
		if o.Result.Degraded {
			n++
		}
	}
	return n
}

// Results returns the stickers produced by the run, in input order.
func (r *Report) Results() []*sticker.Result {
	var out []*sticker.Result
	for _, o := range r.Succeeded() {
		out = append(out, o.Result)
	}
	return out
}

// Runner converts list entries concurrently. A failing entry never stops the
// others.
type Runner struct {
	fetcher   fetch.Fetcher
	converter Converter
	workers   int
	logger    *slog.Logger
	progress  func(Outcome)
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets the concurrency limit. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithProgress registers fn to be called once per finished item.
// Calls are serialized.
func WithProgress(fn func(Outcome)) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

// NewRunner creates a Runner.
func NewRunner(fetcher fetch.Fetcher, converter Converter, opts ...Option) *Runner {
	r := &Runner{
		fetcher:   fetcher,
		converter: converter,
		workers:   DefaultWorkers,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run converts every item and returns their outcomes in input order.
// Items not yet started when ctx is cancelled fail with the context error.
// Items whose names sanitize to the same artifact get distinct "_N" suffixed
// names; which item keeps the plain name depends on completion order.
func (r *Runner) Run(ctx context.Context, items []Item) *Report {
	report := &Report{Outcomes: make([]Outcome, len(items))}
	names := sticker.NewNameSet()

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(r.workers)

	for i, item := range items {
		g.Go(func() error {
			out := r.runOne(ctx, i, item, names)

			mu.Lock()
			defer mu.Unlock()
			report.Outcomes[i] = out
			if r.progress != nil {
				r.progress(out)
			}
			return nil
		})
	}
	_ = g.Wait()

	r.logger.Info("batch finished",
		slog.Int("items", len(items)),
		slog.Int("succeeded", len(report.Succeeded())),
		slog.Int("failed", len(report.Failed())),
	)
	return report
}

func (r *Runner) runOne(ctx context.Context, index int, item Item, names *sticker.NameSet) Outcome {
	start := time.Now()
	out := Outcome{Index: index, Item: item}

	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	src, err := r.fetcher.Fetch(ctx, item.Source)
	if err != nil {
		out.Err = err
		out.Elapsed = time.Since(start)
		r.logger.Warn("fetch failed", slog.String("source", item.Source), slog.String("error", err.Error()))
		return out
	}

	name := item.Name
	if name == "" {
		name = src.Name
	}
	name = names.Reserve(name)

	out.Result, out.Err = r.converter.Convert(ctx, src.Data, name, src.Hint)
	out.Elapsed = time.Since(start)
	if out.Err != nil {
		names.Release(name)
		r.logger.Warn("conversion failed", slog.String("source", item.Source), slog.String("error", out.Err.Error()))
	}
	return out
}
