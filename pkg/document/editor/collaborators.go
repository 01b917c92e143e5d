package editor

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/stateful/mdedit/pkg/document/tree"
)

// Renderer is notified after the tree has changed.
type Renderer interface {
	RequestFullRender()
	// RequestPartialRender asks to repaint starting at the given block.
	// An empty key means the position is unknown.
	RequestPartialRender(from tree.Key)
}

// SelectionSource provides the HTML of the current selection.
type SelectionSource interface {
	SelectionHTML() string
}

// ImageResolver turns an image source into its final location, for
// example by uploading a local file.
type ImageResolver interface {
	ResolveImage(ctx context.Context, src string) (string, error)
}

// PathCompleter returns path candidates for a partially typed path.
type PathCompleter interface {
	CompletePath(ctx context.Context, partial string) ([]string, error)
}

// LanguageLoader prepares support for a code block language.
type LanguageLoader interface {
	LoadLanguage(ctx context.Context, lang string) error
}

type nopRenderer struct{}

func (nopRenderer) RequestFullRender() {}

func (nopRenderer) RequestPartialRender(tree.Key) {}

// taskQueue runs collaborator calls in the background. Finished tasks
// never touch the session; they leave a completion which the owner
// applies on its own goroutine.
type taskQueue struct {
	mu     sync.Mutex
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	completions []func()
	errs        error
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{}
	q.resetLocked()
	return q
}

func (q *taskQueue) resetLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	q.group, q.ctx = errgroup.WithContext(ctx)
	q.cancel = cancel
}

// Go schedules work. The returned completion, if any, is queued even when
// work fails, so a fallback can be applied.
func (q *taskQueue) Go(work func(ctx context.Context) (func(), error)) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	group, ctx := q.group, q.ctx
	q.mu.Unlock()

	group.Go(func() error {
		completion, err := work(ctx)

		q.mu.Lock()
		defer q.mu.Unlock()
		if completion != nil {
			q.completions = append(q.completions, completion)
		}
		q.errs = multierr.Append(q.errs, err)
		return nil
	})
	return true
}

func (q *taskQueue) drain() []func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	completions := q.completions
	q.completions = nil
	return completions
}

// Wait blocks until the scheduled tasks finish and returns their errors.
func (q *taskQueue) Wait() error {
	q.mu.Lock()
	group, cancel := q.group, q.cancel
	if !q.closed {
		q.resetLocked()
	}
	q.mu.Unlock()

	_ = group.Wait()
	cancel()

	q.mu.Lock()
	defer q.mu.Unlock()
	err := q.errs
	q.errs = nil
	return err
}

// Close cancels running tasks and rejects new ones.
func (q *taskQueue) Close() error {
	q.mu.Lock()
	q.closed = true
	group, cancel := q.group, q.cancel
	q.mu.Unlock()

	cancel()
	_ = group.Wait()

	q.mu.Lock()
	defer q.mu.Unlock()
	q.completions = nil
	err := q.errs
	q.errs = nil
	return err
}
