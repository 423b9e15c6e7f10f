package dataset

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/retouch-ml/retouch/internal/tensor"
)

// ErrClosed is returned by Next after Close has stopped the batcher.
var ErrClosed = errors.New("dataset: batcher closed")

// Batcher assembles unpaired source/target batches in the background.
//
// A worker goroutine walks both sets in independently shuffled order,
// reshuffling each at its own epoch boundary, and keeps up to prefetch
// assembled batches ready in a channel. Sets smaller than the batch size
// repeat within a batch.
type Batcher[B tensor.Backend] struct {
	batchSize int
	size      int
	backend   B
	cancel    context.CancelFunc
	g         *errgroup.Group
	out       chan batchPair[B]
}

type batchPair[B tensor.Backend] struct {
	source *tensor.Tensor[float32, B]
	target *tensor.Tensor[float32, B]
}

// NewBatcher starts a batcher over the two sets. Both sets must be
// non-empty and share one image size. prefetch is the number of batches
// kept ready ahead of Next; zero still overlaps assembly of one batch.
func NewBatcher[B tensor.Backend](source, target ImageSet, batchSize, prefetch int, backend B) (*Batcher[B], error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("dataset: batch size must be positive, got %d", batchSize)
	}
	if prefetch < 0 {
		prefetch = 0
	}
	if source.Len() == 0 || target.Len() == 0 {
		return nil, fmt.Errorf("dataset: image sets must not be empty")
	}
	if source.Size() != target.Size() {
		return nil, fmt.Errorf("dataset: source size %d does not match target size %d",
			source.Size(), target.Size())
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	b := &Batcher[B]{
		batchSize: batchSize,
		size:      source.Size(),
		backend:   backend,
		cancel:    cancel,
		g:         g,
		out:       make(chan batchPair[B], prefetch),
	}

	sourceFeed := newFeed(source)
	targetFeed := newFeed(target)

	g.Go(func() error {
		defer close(b.out)
		for {
			next, err := b.assemble(sourceFeed, targetFeed)
			if err != nil {
				return err
			}
			select {
			case b.out <- next:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	return b, nil
}

// Next blocks until a prefetched batch is ready and returns it. Its
// signature matches the trainer's batch-source callback.
func (b *Batcher[B]) Next() (source, target *tensor.Tensor[float32, B], err error) {
	next, ok := <-b.out
	if !ok {
		if err := b.g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return nil, nil, err
		}
		return nil, nil, ErrClosed
	}
	return next.source, next.target, nil
}

// Close stops the prefetch worker and waits for it to exit. Batches
// assembled before the stop are discarded, so a later Next returns
// ErrClosed rather than stale data.
func (b *Batcher[B]) Close() error {
	b.cancel()
	err := b.g.Wait()
	for range b.out {
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// assemble builds one source/target tensor pair.
func (b *Batcher[B]) assemble(sourceFeed, targetFeed *feed) (batchPair[B], error) {
	shape := tensor.Shape{b.batchSize, 3, b.size, b.size}
	n := 3 * b.size * b.size

	sourceData := make([]float32, b.batchSize*n)
	targetData := make([]float32, b.batchSize*n)
	for i := 0; i < b.batchSize; i++ {
		img, err := sourceFeed.next()
		if err != nil {
			return batchPair[B]{}, fmt.Errorf("dataset: source image: %w", err)
		}
		copy(sourceData[i*n:], img)

		img, err = targetFeed.next()
		if err != nil {
			return batchPair[B]{}, fmt.Errorf("dataset: target image: %w", err)
		}
		copy(targetData[i*n:], img)
	}

	source, err := tensor.FromSlice(sourceData, shape, b.backend)
	if err != nil {
		return batchPair[B]{}, err
	}
	target, err := tensor.FromSlice(targetData, shape, b.backend)
	if err != nil {
		return batchPair[B]{}, err
	}
	return batchPair[B]{source: source, target: target}, nil
}

// feed walks one image set in shuffled order, reshuffling at each epoch
// boundary. Each feed shuffles on its own, keeping the sets unpaired.
type feed struct {
	set   ImageSet
	order []int
	pos   int
}

func newFeed(set ImageSet) *feed {
	return &feed{
		set:   set,
		order: rand.Perm(set.Len()), //nolint:gosec // shuffle order is not security-critical
	}
}

func (f *feed) next() ([]float32, error) {
	if f.pos >= len(f.order) {
		f.order = rand.Perm(len(f.order)) //nolint:gosec // shuffle order is not security-critical
		f.pos = 0
	}
	idx := f.order[f.pos]
	f.pos++
	return f.set.Image(idx)
}
