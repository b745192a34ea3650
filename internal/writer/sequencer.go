package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nuitsjp/teams-board/internal/domain/board"
	"github.com/nuitsjp/teams-board/internal/storage"
)

// Item describes one object to write.
type Item struct {
	Path        string
	Content     []byte
	ContentType string
}

// Result is the settled outcome of one write. The descriptor is retained so
// a failed write can be replayed verbatim by RetryFailed.
type Result struct {
	Item
	Success bool
	Err     error
}

// IndexUpdater computes the successor index from the freshly fetched latest
// index and the settled item results. Returning nil declines the index write,
// both when no item succeeded and when the caller detects a conflict against
// the fresh index. A declined write is not a failure; callers tell "declined"
// apart from "written" by the absence of an index-path entry in the results.
type IndexUpdater func(latest *board.Index, items []Result) *board.Index

// Request describes one write sequence.
type Request struct {
	// Raw, when set, is written first; its failure aborts the sequence.
	Raw *Item
	// Items are written concurrently, with no fail-fast.
	Items []Item
	// UpdateIndex, when set, runs after all items settle, against the
	// latest index fetched from the store at that moment.
	UpdateIndex IndexUpdater
	// OnItemComplete fires once per settled item, success or not.
	OnItemComplete func(Result, Item)
}

// Outcome is the aggregate result of a sequence.
type Outcome struct {
	Results      []Result
	AllSucceeded bool
}

// Sequencer orders multi-object writes against a store that has no
// transactions: raw artifact first, then the independent items in parallel,
// then the index, recomputed from whatever the store holds at that instant
// rather than from a copy fetched earlier. The re-fetch narrows, but cannot
// close, the window in which two writers race: the store offers no
// conditional writes, so true compare-and-swap is out of reach. Nothing is
// retried automatically.
type Sequencer struct {
	store  storage.ObjectStore
	source storage.IndexSource
	logger *slog.Logger
}

// New creates a sequencer. The source must be an uncached view of the store.
func New(store storage.ObjectStore, source storage.IndexSource, logger *slog.Logger) *Sequencer {
	return &Sequencer{store: store, source: source, logger: logger}
}

// Execute runs one write sequence. See Request for the protocol.
func (s *Sequencer) Execute(ctx context.Context, req Request) Outcome {
	var results []Result

	if req.Raw != nil {
		res := s.writeItem(ctx, *req.Raw)
		results = append(results, res)
		if !res.Success {
			s.logger.Warn("raw artifact write failed, aborting sequence", "path", req.Raw.Path, "error", res.Err)
			return outcome(results)
		}
	}

	itemResults := s.writeItems(ctx, req.Items, req.OnItemComplete)
	results = append(results, itemResults...)

	if req.UpdateIndex == nil {
		return outcome(results)
	}

	latest, err := s.source.Fetch(ctx)
	if err != nil {
		s.logger.Error("fetching latest index failed", "error", err)
		results = append(results, Result{
			Item: Item{Path: storage.IndexPath, ContentType: storage.ContentTypeJSON},
			Err:  fmt.Errorf("fetching latest index: %w", err),
		})
		return outcome(results)
	}

	next := req.UpdateIndex(latest, itemResults)
	if next == nil {
		s.logger.Info("index update declined, skipping index write")
		return outcome(results)
	}

	content, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		results = append(results, Result{
			Item: Item{Path: storage.IndexPath, ContentType: storage.ContentTypeJSON},
			Err:  fmt.Errorf("encoding index: %w", err),
		})
		return outcome(results)
	}
	results = append(results, s.writeItem(ctx, Item{
		Path:        storage.IndexPath,
		Content:     content,
		ContentType: storage.ContentTypeJSON,
	}))

	return outcome(results)
}

// RetryFailed replays exactly the given write descriptors once. It does not
// re-run the index fetch or updater: an index entry among the failures is
// rewritten byte-for-byte, so callers wanting a fresh successor must run a
// new sequence instead.
func (s *Sequencer) RetryFailed(ctx context.Context, failed []Result) Outcome {
	items := make([]Item, 0, len(failed))
	for _, res := range failed {
		items = append(items, res.Item)
	}
	return outcome(s.writeItems(ctx, items, nil))
}

func (s *Sequencer) writeItems(ctx context.Context, items []Item, onComplete func(Result, Item)) []Result {
	results := make([]Result, len(items))
	var wg sync.WaitGroup
	var mu sync.Mutex
	for i, item := range items {
		wg.Add(1)
		go func(i int, item Item) {
			defer wg.Done()
			res := s.writeItem(ctx, item)
			results[i] = res
			if onComplete != nil {
				mu.Lock()
				onComplete(res, item)
				mu.Unlock()
			}
		}(i, item)
	}
	wg.Wait()
	return results
}

func (s *Sequencer) writeItem(ctx context.Context, item Item) Result {
	if err := s.store.Write(ctx, item.Path, item.Content, item.ContentType); err != nil {
		return Result{Item: item, Err: err}
	}
	s.logger.Debug("object written", "path", item.Path, "bytes", len(item.Content))
	return Result{Item: item, Success: true}
}

func outcome(results []Result) Outcome {
	all := true
	for _, r := range results {
		if !r.Success {
			all = false
			break
		}
	}
	return Outcome{Results: results, AllSucceeded: all}
}
